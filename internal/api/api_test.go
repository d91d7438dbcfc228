package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/metrics"
	"jumpingkids/backend/internal/repository/memory"
	"jumpingkids/backend/internal/service"
	"jumpingkids/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const testJWTSecret = "api-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// nopStorage presigns fake URLs and reports every object as a small mp4.
type nopStorage struct{}

func (nopStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://bucket.test/" + key, nil
}

func (nopStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.test/" + key, nil
}

func (nopStorage) StatObject(context.Context, string) (*storage.ObjectInfo, error) {
	return &storage.ObjectInfo{Size: 1024, ContentType: "video/mp4"}, nil
}

func (nopStorage) DeleteObject(context.Context, string) error { return nil }

func newTestRouter(t *testing.T, cfg RouterConfig) *gin.Engine {
	t.Helper()
	store := memory.New()
	log := zap.NewNop()
	m := metrics.New()

	training := service.NewTrainingService(store.TrainingSessions(), store.Kids(), store.Routines(), store.Assignments(),
		store, 3, m, log)
	svcs := Services{
		Auth:        service.NewAuthService(store.Users(), testJWTSecret, time.Hour, log),
		Kids:        service.NewKidService(store.Kids(), store.Assignments(), store, log),
		Exercises:   service.NewExerciseService(store.Exercises(), store.MediaUploads(), nopStorage{}, log),
		Routines:    service.NewRoutineService(store.Routines(), store.Exercises(), log),
		Assignments: service.NewAssignmentService(store.Assignments(), store.Kids(), store.Routines(), store, log),
		Training:    training,
	}
	cfg.JWTSecret = testJWTSecret
	return NewRouter(cfg, svcs, m, log)
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

// expect checks the status and decodes the JSON body into out when out is not nil.
func (c *client) expect(w *httptest.ResponseRecorder, status int, out interface{}) {
	c.t.Helper()
	if w.Code != status {
		c.t.Fatalf("status = %d, want %d; body: %s", w.Code, status, w.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			c.t.Fatalf("decode body: %v; body: %s", err, w.Body.String())
		}
	}
}

// signup registers a user and returns a client authenticated as them.
func signup(t *testing.T, router *gin.Engine, email string, role domain.Role) *client {
	t.Helper()
	anon := &client{t: t, router: router}
	anon.expect(anon.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"name": "Test User", "email": email, "password": "supersecret", "role": role,
	}), http.StatusCreated, nil)

	var login LoginResponse
	anon.expect(anon.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": email, "password": "supersecret",
	}), http.StatusOK, &login)
	if login.Token == "" || login.User.Role != role {
		t.Fatalf("unexpected login response: %+v", login)
	}
	return &client{t: t, router: router, token: login.Token}
}

type idBody struct {
	ID string `json:"id"`
}

// seedCatalog creates n exercises and a routine using them, returning the routine id.
func seedCatalog(tutor *client, n int) string {
	tutor.t.Helper()
	exercises := []gin.H{}
	for i := 0; i < n; i++ {
		var ex idBody
		tutor.expect(tutor.do(http.MethodPost, "/api/v1/exercises", gin.H{
			"name": "Saltos", "category": "Cardio", "durationSeconds": 30, "ageGroup": "6-8",
		}), http.StatusCreated, &ex)
		exercises = append(exercises, gin.H{"exerciseId": ex.ID, "order": i + 1})
	}

	var routine idBody
	tutor.expect(tutor.do(http.MethodPost, "/api/v1/routines", gin.H{
		"name": "Rutina", "category": "Cardio", "durationMinutes": 10, "ageGroup": "6-8", "exercises": exercises,
	}), http.StatusCreated, &routine)
	return routine.ID
}

func createKid(c *client) string {
	c.t.Helper()
	var kid idBody
	c.expect(c.do(http.MethodPost, "/api/v1/kids", gin.H{
		"name": "Lucía", "age": 7, "birthDate": "2017-01-20",
	}), http.StatusCreated, &kid)
	return kid.ID
}

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})
	c := &client{t: t, router: router}

	for _, path := range []string{"/ping", "/health", "/info", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			w := c.do(http.MethodGet, path, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("GET %s = %d", path, w.Code)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID: "65f0c0ffee0000000000abcd",
		Role:   domain.RoleTutor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		UserID: "65f0c0ffee0000000000abcd",
		Role:   domain.RoleTutor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	forgedToken, err := forged.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "expired", header: "Bearer " + expiredToken},
		{name: "wrong secret", header: "Bearer " + forgedToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}

	tutor := signup(t, router, "tutor@example.com", domain.RoleTutor)
	var me struct {
		UserID string      `json:"userId"`
		Role   domain.Role `json:"role"`
	}
	tutor.expect(tutor.do(http.MethodGet, "/api/v1/me", nil), http.StatusOK, &me)
	if me.Role != domain.RoleTutor || me.UserID == "" {
		t.Fatalf("unexpected /me: %+v", me)
	}
}

func TestRegisterConflict(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})
	signup(t, router, "dup@example.com", domain.RoleTutor)

	anon := &client{t: t, router: router}
	anon.expect(anon.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"name": "Again", "email": "dup@example.com", "password": "supersecret", "role": "tutor",
	}), http.StatusConflict, nil)
	anon.expect(anon.do(http.MethodPost, "/api/v1/auth/login", gin.H{
		"email": "dup@example.com", "password": "wrong-password",
	}), http.StatusUnauthorized, nil)
}

func TestKidAccountCannotWriteCatalog(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})
	kid := signup(t, router, "kid@example.com", domain.RoleKid)

	kid.expect(kid.do(http.MethodPost, "/api/v1/exercises", gin.H{
		"name": "Saltos", "category": "Cardio", "durationSeconds": 30, "ageGroup": "6-8",
	}), http.StatusForbidden, nil)

	// A kid account can still own its profile.
	createKid(kid)
}

func TestTrainingSessionFlow(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})
	tutor := signup(t, router, "tutor@example.com", domain.RoleTutor)

	routineID := seedCatalog(tutor, 2)
	kidID := createKid(tutor)

	var assignment idBody
	tutor.expect(tutor.do(http.MethodPost, "/api/v1/assignments", gin.H{
		"kidId": kidID, "routineId": routineID,
	}), http.StatusCreated, &assignment)

	var session domain.TrainingSession
	tutor.expect(tutor.do(http.MethodPost, "/api/v1/training/sessions", gin.H{
		"kidId": kidID, "routineId": routineID, "assignmentId": assignment.ID,
	}), http.StatusCreated, &session)
	if session.TotalExercises != 2 || session.Status != domain.SessionInProgress {
		t.Fatalf("unexpected session: %+v", session)
	}
	base := "/api/v1/training/sessions/" + session.ID.Hex()

	tutor.expect(tutor.do(http.MethodPut, base+"/exercise/complete", gin.H{"rating": 4}), http.StatusOK, &session)
	tutor.expect(tutor.do(http.MethodPut, base+"/exercise/complete", nil), http.StatusOK, &session)
	if session.Status != domain.SessionCompleted || session.ExercisesCompleted != 2 {
		t.Fatalf("session did not auto-complete: %+v", session)
	}
	tutor.expect(tutor.do(http.MethodPut, base+"/exercise/complete", nil), http.StatusNotFound, nil)

	var done CompleteSessionResponse
	tutor.expect(tutor.do(http.MethodPut, base+"/complete", gin.H{
		"totalTimeMinutes": 10, "exercisesCompleted": 2, "overallRating": 5,
	}), http.StatusOK, &done)
	if done.StatsUpdated == nil || done.StatsUpdated.NewStreak != 1 || done.StatsUpdated.TotalMinutes != 10 {
		t.Fatalf("unexpected stats summary: %+v", done.StatsUpdated)
	}

	var notFound map[string]string
	tutor.expect(tutor.do(http.MethodPut, base+"/complete", gin.H{
		"totalTimeMinutes": 10, "exercisesCompleted": 2, "overallRating": 5,
	}), http.StatusNotFound, &notFound)
	if notFound["error"] != "training session not found" {
		t.Fatalf("error body = %v", notFound)
	}

	var completed domain.Assignment
	tutor.expect(tutor.do(http.MethodGet, "/api/v1/assignments/"+assignment.ID, nil), http.StatusOK, &completed)
	if completed.Status != domain.AssignmentCompleted || completed.CompletionTimeMinutes == nil || *completed.CompletionTimeMinutes != 10 {
		t.Fatalf("assignment not completed by cascade: %+v", completed)
	}

	var stats struct {
		domain.KidStats
		WeeklyProgress []domain.WeeklyProgressDay `json:"weeklyProgress"`
	}
	tutor.expect(tutor.do(http.MethodGet, "/api/v1/kids/"+kidID+"/stats", nil), http.StatusOK, &stats)
	if stats.CurrentStreak != 1 || stats.TotalMinutes != 10 || stats.TotalRoutines != 1 || len(stats.WeeklyProgress) != 7 {
		t.Fatalf("unexpected kid stats: %+v", stats)
	}
}

func TestTrainingSessionErrors(t *testing.T) {
	router := newTestRouter(t, RouterConfig{})
	tutor := signup(t, router, "tutor@example.com", domain.RoleTutor)
	stranger := signup(t, router, "stranger@example.com", domain.RoleTutor)

	routineID := seedCatalog(tutor, 1)
	kidID := createKid(tutor)

	var session domain.TrainingSession
	tutor.expect(tutor.do(http.MethodPost, "/api/v1/training/sessions", gin.H{
		"kidId": kidID, "routineId": routineID,
	}), http.StatusCreated, &session)
	base := "/api/v1/training/sessions/" + session.ID.Hex()

	t.Run("stranger sees nothing", func(t *testing.T) {
		stranger.expect(stranger.do(http.MethodGet, base, nil), http.StatusNotFound, nil)
		stranger.expect(stranger.do(http.MethodPut, base+"/exercise/complete", nil), http.StatusNotFound, nil)
		stranger.expect(stranger.do(http.MethodPost, "/api/v1/training/sessions", gin.H{
			"kidId": kidID, "routineId": routineID,
		}), http.StatusNotFound, nil)
	})

	t.Run("out of bounds completion", func(t *testing.T) {
		var body map[string]string
		tutor.expect(tutor.do(http.MethodPut, base+"/complete", gin.H{
			"totalTimeMinutes": 10, "exercisesCompleted": 1, "overallRating": 9,
		}), http.StatusUnprocessableEntity, &body)
		if body["field"] != "overallRating" {
			t.Fatalf("field = %q, want overallRating", body["field"])
		}
	})

	t.Run("exercise rating out of bounds", func(t *testing.T) {
		var body map[string]string
		tutor.expect(tutor.do(http.MethodPut, base+"/exercise/complete", gin.H{"rating": 7}), http.StatusUnprocessableEntity, &body)
		if body["field"] != "rating" {
			t.Fatalf("field = %q, want rating", body["field"])
		}
	})

	t.Run("missing session summary", func(t *testing.T) {
		var body map[string]string
		tutor.expect(tutor.do(http.MethodPut, base+"/complete", gin.H{"overallRating": 4}), http.StatusUnprocessableEntity, &body)
		if body["field"] != "totalTimeMinutes" {
			t.Fatalf("field = %q, want totalTimeMinutes", body["field"])
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, base+"/complete", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tutor.token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		tutor.expect(tutor.do(http.MethodGet, "/api/v1/training/sessions/not-an-id", nil), http.StatusBadRequest, nil)
	})

	var still domain.TrainingSession
	tutor.expect(tutor.do(http.MethodGet, base, nil), http.StatusOK, &still)
	if still.ExercisesCompleted != 0 || still.Finalized {
		t.Fatalf("rejected calls mutated the session: %+v", still)
	}
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, RouterConfig{RateLimit: 2, RateWindow: time.Minute})
	c := &client{t: t, router: router}

	c.expect(c.do(http.MethodGet, "/ping", nil), http.StatusOK, nil)
	c.expect(c.do(http.MethodGet, "/ping", nil), http.StatusOK, nil)
	w := c.do(http.MethodGet, "/ping", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After header")
	}
}
