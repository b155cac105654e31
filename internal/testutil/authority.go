// Package testutil provides an in-process stand-in for the remote exam
// authority so engine, client and CLI tests run against real HTTP.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-certify/internal/model"
)

// Fixture values accepted by the fake authority.
const (
	AdminEmail     = "admin@example.com"
	AdminPassword  = "s3cret-pass"
	CertificatePDF = "%PDF-1.7\n% fake certificate\n"
	jwtSecret      = "authority-test-secret"
)

// Questions is the question set every redemption receives.
var Questions = []model.Question{
	{ID: "q1", Prompt: "Structuring deposits to avoid reporting is a money laundering technique.", Type: model.QuestionTypeTrueFalse},
	{ID: "q2", Prompt: "Which stage hides the origin of funds through transactions?", Type: model.QuestionTypeSingleChoice, Options: []string{"Placement", "Layering", "Integration"}},
	{ID: "q3", Prompt: "Customer due diligence is optional for high-risk clients.", Type: model.QuestionTypeTrueFalse},
	{ID: "q4", Prompt: "Who must a suspicious transaction be reported to?", Type: model.QuestionTypeSingleChoice, Options: []string{"The customer", "The FIU", "A competitor"}},
	{ID: "q5", Prompt: "Sanctions screening applies to new and existing customers.", Type: model.QuestionTypeTrueFalse},
}

// CorrectAnswers is the answer key for Questions.
var CorrectAnswers = map[string]model.Answer{
	"q1": model.BoolAnswer(true),
	"q2": model.TextAnswer("Layering"),
	"q3": model.BoolAnswer(false),
	"q4": model.TextAnswer("The FIU"),
	"q5": model.BoolAnswer(true),
}

type enrollment struct {
	model.Enrollment
	sessionID string
	last      *model.CandidateResult
}

// Authority is a gin-backed fake of the remote exam authority.
type Authority struct {
	Server *httptest.Server

	mu          sync.Mutex
	enrollments map[string]*enrollment
	sessions    map[string]string // sessionId → email
	startCalls  int
	submitCalls int
	lastSubmit  map[string]any
	lastHeaders http.Header

	submitOverride gin.HandlerFunc
}

// NewAuthority starts a fake authority that is closed with the test.
func NewAuthority(t *testing.T) *Authority {
	t.Helper()
	gin.SetMode(gin.TestMode)

	a := &Authority{
		enrollments: make(map[string]*enrollment),
		sessions:    make(map[string]string),
	}

	r := gin.New()
	r.POST("/api/exam/start", a.startExam)
	r.POST("/api/exam/submit", a.requireToken("candidate"), a.submitExam)

	admin := r.Group("/api/admin")
	admin.POST("/login", a.adminLogin)
	admin.Use(a.requireToken("admin"))
	admin.POST("/enroll", a.enroll)
	admin.GET("/enrollments", a.listEnrollments)
	admin.POST("/unenroll", a.unenroll)
	admin.POST("/result", a.result)

	a.Server = httptest.NewServer(r)
	t.Cleanup(a.Server.Close)
	return a
}

// URL is the base URL of the fake authority.
func (a *Authority) URL() string { return a.Server.URL }

// Enroll registers email with a fixed access code.
func (a *Authority) Enroll(email, code string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enrollments[strings.ToLower(email)] = &enrollment{Enrollment: model.Enrollment{
		ID:         uuid.NewString(),
		Email:      email,
		AccessCode: code,
	}}
}

// SetAttempts presets the attempt count of an enrollment.
func (a *Authority) SetAttempts(email string, n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if e, ok := a.enrollments[strings.ToLower(email)]; ok {
		e.Attempts = n
	}
}

// OverrideSubmit makes /api/exam/submit answer with h instead of grading.
// A nil h restores grading.
func (a *Authority) OverrideSubmit(h gin.HandlerFunc) {
	a.mu.Lock()
	a.submitOverride = h
	a.mu.Unlock()
}

// StartCalls returns how many redemption requests were received.
func (a *Authority) StartCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.startCalls
}

// SubmitCalls returns how many submission requests were received.
func (a *Authority) SubmitCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitCalls
}

// LastSubmit returns the decoded body of the last submission.
func (a *Authority) LastSubmit() map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSubmit
}

// LastHeaders returns the headers of the last exam request.
func (a *Authority) LastHeaders() http.Header {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastHeaders
}

// IssueToken signs a token for role with the given lifetime.
func IssueToken(role string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		panic(fmt.Sprintf("sign test token: %v", err))
	}
	return signed
}

func (a *Authority) requireToken(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token required"})
			return
		}
		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		if err != nil || claims["role"] != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Forbidden"})
			return
		}
		c.Next()
	}
}

func (a *Authority) startExam(c *gin.Context) {
	var req model.StartExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.startCalls++
	a.lastHeaders = c.Request.Header.Clone()

	e, ok := a.enrollments[strings.ToLower(req.Email)]
	if !ok || e.AccessCode != req.AccessCode {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or access code"})
		return
	}
	if e.Used {
		c.JSON(http.StatusConflict, gin.H{"message": "Access code has already been used"})
		return
	}
	if e.Attempts >= 3 {
		c.JSON(http.StatusForbidden, gin.H{"message": "Maximum attempts reached"})
		return
	}

	e.Used = true
	e.sessionID = uuid.NewString()
	a.sessions[e.sessionID] = strings.ToLower(req.Email)

	c.JSON(http.StatusOK, gin.H{
		"token":     IssueToken("candidate", time.Hour),
		"sessionId": e.sessionID,
		"questions": Questions,
	})
}

func (a *Authority) submitExam(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	a.mu.Lock()
	a.submitCalls++
	a.lastSubmit = body
	a.lastHeaders = c.Request.Header.Clone()
	override := a.submitOverride
	a.mu.Unlock()

	if override != nil {
		override(c)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	sessionID, _ := body["sessionId"].(string)
	email, ok := a.sessions[sessionID]
	if !ok {
		c.JSON(http.StatusGone, gin.H{"message": "Session has already been submitted"})
		return
	}
	delete(a.sessions, sessionID)
	e := a.enrollments[email]

	answers, _ := body["answers"].(map[string]any)
	score := 0
	for id, want := range CorrectAnswers {
		if got, ok := answers[id]; ok && fmt.Sprint(got) == want.String() {
			score++
		}
	}
	percentage := float64(score) / float64(len(CorrectAnswers)) * 100
	passed := percentage >= 80

	e.Attempts++
	e.Passed = passed
	e.Used = false
	name, _ := body["name"].(string)
	e.last = &model.CandidateResult{
		Email: e.Email, Name: name, Score: score,
		Percentage: percentage, Passed: passed, Attempts: e.Attempts,
	}

	if passed {
		c.Data(http.StatusOK, "application/pdf", []byte(CertificatePDF))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"score":      score,
		"percentage": percentage,
		"passed":     passed,
		"attempts":   e.Attempts,
	})
}

func (a *Authority) adminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}
	if req.Email != AdminEmail || req.Password != AdminPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid admin credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": IssueToken("admin", time.Hour)})
}

func (a *Authority) enroll(c *gin.Context) {
	var req model.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is required"})
		return
	}
	key := strings.ToLower(req.Email)

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.enrollments[key]; exists {
		c.JSON(http.StatusConflict, gin.H{"message": "Student already enrolled"})
		return
	}
	e := &enrollment{Enrollment: model.Enrollment{
		ID:         uuid.NewString(),
		Email:      req.Email,
		AccessCode: strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8]),
	}}
	a.enrollments[key] = e
	c.JSON(http.StatusCreated, e.Enrollment)
}

func (a *Authority) listEnrollments(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := make([]model.Enrollment, 0, len(a.enrollments))
	for _, e := range a.enrollments {
		list = append(list, e.Enrollment)
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": list})
}

func (a *Authority) unenroll(c *gin.Context) {
	var req model.UnenrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}
	key := strings.ToLower(req.Email)

	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.enrollments[key]
	if !ok || e.ID != req.ID {
		c.JSON(http.StatusNotFound, gin.H{"message": "Enrollment not found"})
		return
	}
	delete(a.enrollments, key)
	c.JSON(http.StatusOK, gin.H{"message": "Unenrolled"})
}

func (a *Authority) result(c *gin.Context) {
	var req model.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request"})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	e, ok := a.enrollments[strings.ToLower(req.Email)]
	if !ok || e.last == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "No result for this candidate"})
		return
	}
	c.JSON(http.StatusOK, e.last)
}
