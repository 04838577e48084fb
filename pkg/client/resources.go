package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Lead mirrors the server lead DTO.
type Lead struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone"`
	Source     string  `json:"source"`
	CourseID   *string `json:"course_id,omitempty"`
	BranchID   *string `json:"branch_id,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
	Status     string  `json:"status"`
	Notes      string  `json:"notes,omitempty"`
}

// Admission mirrors the server admission DTO.
type Admission struct {
	ID          string `json:"id"`
	AdmissionNo string `json:"admission_no"`
	LeadID      *string `json:"lead_id,omitempty"`
	CourseID    string `json:"course_id"`
	BranchID    string `json:"branch_id"`
	Status      string `json:"status"`
	TotalFee    int64  `json:"total_fee"`
	FeePaid     int64  `json:"fee_paid"`
}

// Balance is the derived outstanding amount. Overpayment yields a negative
// balance and is reported as-is.
func (a Admission) Balance() int64 {
	return a.TotalFee - a.FeePaid
}

// Student mirrors the server student DTO.
type Student struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	AdmissionID       *string `json:"admission_id,omitempty"`
	CourseID          string  `json:"course_id"`
	BranchID          string  `json:"branch_id"`
	BatchID           *string `json:"batch_id,omitempty"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Email             string  `json:"email"`
	PlacementEligible bool    `json:"placement_eligible"`
	CertificateLocked bool    `json:"certificate_locked"`
	Active            bool    `json:"active"`
}

// Course, Branch and Batch are thin list DTOs.
type Course struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	DurationWeeks int    `json:"duration_weeks"`
	Fee           int64  `json:"fee"`
	Active        bool   `json:"active"`
}

type Branch struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	City   string `json:"city,omitempty"`
	Active bool   `json:"active"`
}

type Batch struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CourseID  string `json:"course_id"`
	BranchID  string `json:"branch_id"`
	TrainerID string `json:"trainer_id"`
	Active    bool   `json:"active"`
}

// Notification mirrors the server notification DTO.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is returned by Login and SetupInitialize.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

// SetupStatus reports whether first-run initialization is pending.
type SetupStatus struct {
	SetupRequired bool `json:"setup_required"`
}

// Dashboard is the role-scoped overview payload, kept loosely typed since
// each role receives a different shape.
type Dashboard map[string]any

// ListOptions carries shared paging/filter query parameters.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
	Status   string
	BranchID string
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("limit", strconv.Itoa(o.PageSize))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	if o.BranchID != "" {
		q.Set("branch_id", o.BranchID)
	}
	return q
}

// --- setup & auth ---

func (c *Client) SetupStatus(ctx context.Context) (*SetupStatus, error) {
	var out SetupStatus
	if err := c.do(ctx, http.MethodGet, "/setup/status", nil, nil, &out, "Failed to check setup status"); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetupInitialize bootstraps the first admin and stores the issued session.
func (c *Client) SetupInitialize(ctx context.Context, req SetupInitializeRequest) (*Session, error) {
	var out Session
	if err := c.do(ctx, http.MethodPost, "/setup/initialize", nil, req, &out, "Failed to initialize setup"); err != nil {
		return nil, err
	}
	if out.AccessToken != "" {
		if err := c.saveSession(out.AccessToken, &out.User); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// SetupInitializeRequest creates the first admin account and branch.
type SetupInitializeRequest struct {
	InstituteName string `json:"institute_name"`
	BranchName    string `json:"branch_name"`
	BranchCity    string `json:"branch_city,omitempty"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
}

// Login authenticates and persists the session in the store.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out, "Failed to login"); err != nil {
		return nil, err
	}
	if err := c.saveSession(out.AccessToken, &out.User); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the refresh token server-side and clears the local session.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refresh_token": refreshToken}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, body, nil, "Failed to logout")
	_ = c.store.Clear()
	return err
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out, "Failed to fetch profile"); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile mutates the caller's profile and refreshes the stored copy.
func (c *Client) UpdateProfile(ctx context.Context, firstName, lastName, phone, photo string) (*User, error) {
	body := map[string]string{"first_name": firstName, "last_name": lastName, "phone": phone, "photo": photo}
	var out User
	if err := c.do(ctx, http.MethodPut, "/auth/me", nil, body, &out, "Failed to update profile"); err != nil {
		return nil, err
	}
	if c.store.Token() != "" {
		_ = c.store.SetUser(&out)
	}
	return &out, nil
}

func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/change-password", nil, body, nil, "Failed to change password")
}

// --- leads ---

func (c *Client) ListLeads(ctx context.Context, opts ListOptions) ([]Lead, *Pagination, error) {
	var out []Lead
	page, err := c.doList(ctx, "/leads", opts.query(), &out, "Failed to fetch leads")
	return out, page, err
}

func (c *Client) GetLead(ctx context.Context, id string) (*Lead, error) {
	var out Lead
	if err := c.do(ctx, http.MethodGet, "/leads/"+id, nil, nil, &out, "Failed to fetch lead"); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeadInput is the create/update payload for a lead.
type LeadInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email,omitempty"`
	Phone    string  `json:"phone"`
	Source   string  `json:"source,omitempty"`
	CourseID *string `json:"course_id,omitempty"`
	BranchID *string `json:"branch_id,omitempty"`
	Notes    string  `json:"notes,omitempty"`
}

// CreateLead routes on session state: with a token it uses the staff
// endpoint, without one it falls back to the public enquiry endpoint.
func (c *Client) CreateLead(ctx context.Context, input LeadInput) (*Lead, error) {
	if c.store.Token() == "" {
		return c.CreatePublicLead(ctx, input)
	}
	var out Lead
	if err := c.do(ctx, http.MethodPost, "/leads", nil, input, &out, "Failed to create lead"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePublicLead always submits through the public enquiry endpoint.
func (c *Client) CreatePublicLead(ctx context.Context, input LeadInput) (*Lead, error) {
	var out Lead
	if err := c.do(ctx, http.MethodPost, "/leads/public", nil, input, &out, "Failed to submit enquiry"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateLead(ctx context.Context, id string, input LeadInput) (*Lead, error) {
	var out Lead
	if err := c.do(ctx, http.MethodPut, "/leads/"+id, nil, input, &out, "Failed to update lead"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateLeadStatus(ctx context.Context, id, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, http.MethodPatch, "/leads/"+id+"/status", nil, body, nil, "Failed to update lead status")
}

// ConvertLead turns a lead into a pending admission.
func (c *Client) ConvertLead(ctx context.Context, id, courseID string, totalFee int64) (*Admission, error) {
	body := map[string]any{"course_id": courseID, "total_fee": totalFee}
	var out Admission
	if err := c.do(ctx, http.MethodPost, "/leads/"+id+"/convert", nil, body, &out, "Failed to convert lead"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/leads/"+id, nil, nil, nil, "Failed to delete lead")
}

// --- admissions ---

func (c *Client) ListAdmissions(ctx context.Context, opts ListOptions) ([]Admission, *Pagination, error) {
	var out []Admission
	page, err := c.doList(ctx, "/admissions", opts.query(), &out, "Failed to fetch admissions")
	return out, page, err
}

func (c *Client) GetAdmission(ctx context.Context, id string) (*Admission, error) {
	var out Admission
	if err := c.do(ctx, http.MethodGet, "/admissions/"+id, nil, nil, &out, "Failed to fetch admission"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApproveAdmission(ctx context.Context, id string) (*Admission, error) {
	var out Admission
	if err := c.do(ctx, http.MethodPost, "/admissions/"+id+"/approve", nil, nil, &out, "Failed to approve admission"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectAdmission(ctx context.Context, id string) (*Admission, error) {
	var out Admission
	if err := c.do(ctx, http.MethodPost, "/admissions/"+id+"/reject", nil, nil, &out, "Failed to reject admission"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConvertAdmissionResult returns the created student account details.
type ConvertAdmissionResult struct {
	Student      Student `json:"student"`
	UserID       string  `json:"user_id"`
	Email        string  `json:"email"`
	TempPassword string  `json:"temp_password"`
}

func (c *Client) ConvertAdmission(ctx context.Context, id string, batchID *string) (*ConvertAdmissionResult, error) {
	body := map[string]any{"batch_id": batchID}
	var out ConvertAdmissionResult
	if err := c.do(ctx, http.MethodPost, "/admissions/"+id+"/convert", nil, body, &out, "Failed to convert admission"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RecordFeePayment(ctx context.Context, admissionID string, amount int64, mode, reference string) error {
	body := map[string]any{"amount": amount, "mode": mode, "reference": reference}
	return c.do(ctx, http.MethodPost, "/admissions/"+admissionID+"/payments", nil, body, nil, "Failed to record payment")
}

// --- students ---

func (c *Client) ListStudents(ctx context.Context, opts ListOptions) ([]Student, *Pagination, error) {
	var out []Student
	page, err := c.doList(ctx, "/students", opts.query(), &out, "Failed to fetch students")
	return out, page, err
}

func (c *Client) GetStudent(ctx context.Context, id string) (*Student, error) {
	var out Student
	if err := c.do(ctx, http.MethodGet, "/students/"+id, nil, nil, &out, "Failed to fetch student"); err != nil {
		return nil, err
	}
	return &out, nil
}

// MyStudentProfile fetches the caller's own student record.
func (c *Client) MyStudentProfile(ctx context.Context) (*Student, error) {
	var out Student
	if err := c.do(ctx, http.MethodGet, "/students/me", nil, nil, &out, "Failed to fetch student profile"); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- catalog ---

func (c *Client) ListCourses(ctx context.Context, opts ListOptions) ([]Course, *Pagination, error) {
	var out []Course
	page, err := c.doList(ctx, "/courses", opts.query(), &out, "Failed to fetch courses")
	return out, page, err
}

func (c *Client) ListBranches(ctx context.Context, opts ListOptions) ([]Branch, *Pagination, error) {
	var out []Branch
	page, err := c.doList(ctx, "/branches", opts.query(), &out, "Failed to fetch branches")
	return out, page, err
}

// --- batches ---

func (c *Client) ListBatches(ctx context.Context, opts ListOptions) ([]Batch, *Pagination, error) {
	var out []Batch
	page, err := c.doList(ctx, "/batches", opts.query(), &out, "Failed to fetch batches")
	return out, page, err
}

func (c *Client) BatchRoster(ctx context.Context, batchID string) ([]Student, error) {
	var out []Student
	err := c.do(ctx, http.MethodGet, "/batches/"+batchID+"/students", nil, nil, &out, "Failed to fetch roster")
	return out, err
}

// --- notifications ---

func (c *Client) ListNotifications(ctx context.Context, opts ListOptions) ([]Notification, *Pagination, error) {
	var out []Notification
	page, err := c.doList(ctx, "/notifications", opts.query(), &out, "Failed to fetch notifications")
	return out, page, err
}

func (c *Client) UnreadNotifications(ctx context.Context) (int, error) {
	var out struct {
		Unread int `json:"unread"`
	}
	if err := c.do(ctx, http.MethodGet, "/notifications/unread", nil, nil, &out, "Failed to fetch unread count"); err != nil {
		return 0, err
	}
	return out.Unread, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/notifications/"+id+"/read", nil, nil, nil, "Failed to mark notification read")
}

// --- dashboard & reports ---

// GetDashboard fetches the caller's role-scoped overview.
func (c *Client) GetDashboard(ctx context.Context) (Dashboard, error) {
	var out Dashboard
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, nil, &out, "Failed to fetch dashboard"); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadReport streams a rendered report. Path is one of the /reports
// routes; format is csv or pdf.
func (c *Client) DownloadReport(ctx context.Context, path, format string) ([]byte, string, error) {
	endpoint := c.baseURL + path + "?format=" + url.QueryEscape(format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", err
	}
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", &APIError{Message: "Failed to download report"}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessionRejected()
	}
	if resp.StatusCode >= 400 {
		return nil, "", &APIError{Status: resp.StatusCode, Message: "Failed to download report"}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &APIError{Message: "Failed to download report"}
	}
	return payload, resp.Header.Get("Content-Type"), nil
}
