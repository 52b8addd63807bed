package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/joho/godotenv"

	"github.com/Abdullah7175/mustafabackend/internal/auth"
	"github.com/Abdullah7175/mustafabackend/internal/models"
)

const (
	testAppBinary  = "./mustafabackend_test_app"
	testAppPort    = "8089"
	testAppURL     = "http://localhost:" + testAppPort
	testDbName     = "mustafabackend_integration"
	startupTimeout = 15 * time.Second
	pingEndpoint   = testAppURL + "/v1/ping"

	adminEmail    = "admin@integration.test"
	adminPassword = "Adm1nP@ssword"
	agentEmail    = "agent@integration.test"
	agentPassword = "Ag3ntP@ssword"
)

// appReady is set once the app process answers ping. Tests skip when the
// integration environment (MONGO_URI_TEST) is not configured.
var appReady bool

var seededAgentID string

// TestMain builds the application binary, seeds the integration database,
// starts the app in 'all' mode and waits for it to become ready.
func TestMain(m *testing.M) {
	godotenv.Load()

	mongoURI := os.Getenv("MONGO_URI_TEST")
	if mongoURI == "" {
		log.Println("MONGO_URI_TEST not set; skipping integration tests.")
		os.Exit(m.Run())
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	defer func() {
		log.Println("Integration Test Teardown: Cleaning up test binary...")
		_ = os.Remove(testAppBinary)
	}()

	log.Println("Integration Test Setup: Building application...")
	buildCmd := exec.Command("go", "build", "-o", testAppBinary, ".")
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, string(buildOutput))
		os.Exit(1)
	}

	if err := seedTestData(mongoURI); err != nil {
		log.Printf("Failed to seed test data: %v", err)
		os.Exit(1)
	}
	defer cleanupTestData(mongoURI)

	appCmd := exec.Command(testAppBinary, "-m", "all")
	appCmd.Env = append(os.Environ(),
		"API_PORT="+testAppPort,
		"MONGO_URI="+mongoURI,
		"MONGO_DB_NAME="+testDbName,
		"REDIS_ADDR="+redisAddr,
		"JWT_SECRET=integration-test-secret",
		"GIN_MODE=release",
		"RATE_LIMIT_BUCKET_SIZE=100",
		"RATE_LIMIT_REFILL_RATE=100",
	)
	appCmd.Stderr = os.Stderr
	appCmd.Stdout = os.Stdout

	log.Println("Integration Test Setup: Starting application process...")
	if err := appCmd.Start(); err != nil {
		log.Printf("Failed to start application process: %v", err)
		os.Exit(1)
	}
	log.Printf("Integration Test Setup: Application started (PID: %d)...", appCmd.Process.Pid)

	defer func() {
		log.Println("Integration Test Teardown: Shutting down application...")
		if processErr := appCmd.Process.Signal(syscall.SIGTERM); processErr != nil {
			log.Printf("Integration Test Teardown: Failed to send SIGTERM: %v. Killing.", processErr)
			_ = appCmd.Process.Kill()
		} else {
			_, waitErr := appCmd.Process.Wait()
			if waitErr != nil && waitErr.Error() != "signal: killed" && waitErr.Error() != "exit status 1" {
				log.Printf("Integration Test Teardown: Error waiting for app exit: %v", waitErr)
			}
		}
		log.Println("Integration Test Teardown: Application stopped.")
	}()

	log.Printf("Integration Test Setup: Waiting for application at %s...", pingEndpoint)
	startTime := time.Now()
	for time.Since(startTime) < startupTimeout {
		resp, err := http.Get(pingEndpoint)
		if err == nil && resp.StatusCode == http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if string(bodyBytes) == "pong" {
				log.Println("Integration Test Setup: Application is ready!")
				appReady = true
				break
			}
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(200 * time.Millisecond)
	}

	if !appReady {
		log.Printf("Application failed to start within %v", startupTimeout)
		os.Exit(1)
	}

	exitCode := m.Run()
	log.Printf("Integration Test Teardown: Tests finished with exit code %d.", exitCode)
}

func requireApp(t *testing.T) {
	t.Helper()
	if !appReady {
		t.Skip("integration environment not configured (set MONGO_URI_TEST)")
	}
}

// seedTestData creates the admin user and one active agent the tests log in
// as. Collections are dropped first so reruns start clean.
func seedTestData(mongoURI string) error {
	log.Println("Seeding test data...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB for seeding: %w", err)
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting seeding client: %v", err)
		}
	}()

	db := client.Database(testDbName)
	for _, name := range []string{"users", "agents", "inquiries", "bookings"} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", name, err)
		}
	}

	adminHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin := models.User{
		ID:           primitive.NewObjectID().Hex(),
		Name:         "Integration Admin",
		Email:        adminEmail,
		PasswordHash: adminHash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if _, err := db.Collection("users").InsertOne(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.Printf("Seeded admin user %s", admin.ID)

	agentHash, err := auth.HashPassword(agentPassword)
	if err != nil {
		return fmt.Errorf("failed to hash agent password: %w", err)
	}
	agent := models.Agent{
		ID:           primitive.NewObjectID().Hex(),
		Name:         "Integration Agent",
		Email:        agentEmail,
		PasswordHash: agentHash,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if _, err := db.Collection("agents").InsertOne(ctx, agent); err != nil {
		return fmt.Errorf("failed to seed agent: %w", err)
	}
	seededAgentID = agent.ID
	log.Printf("Seeded agent %s", seededAgentID)

	return nil
}

func cleanupTestData(mongoURI string) {
	log.Println("Cleaning up seeded test data...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Printf("Failed to connect to MongoDB for cleanup: %v", err)
		return
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting cleanup client: %v", err)
		}
	}()

	db := client.Database(testDbName)
	for _, name := range []string{"users", "agents", "inquiries", "bookings"} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			log.Printf("Failed to drop collection %s during cleanup: %v", name, err)
		}
	}
	log.Println("Finished cleaning up seeded data.")
}

// doJSON sends a JSON request to the running app and decodes the response
// body into a generic map. An empty token means an unauthenticated call.
func doJSON(t *testing.T, method, path, token string, payload interface{}) (map[string]interface{}, *http.Response) {
	t.Helper()

	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		require.NoError(t, err, "Failed to marshal request payload")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, testAppURL+path, bodyReader)
	require.NoError(t, err, "Failed to create HTTP request")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "Request to %s should not fail", path)

	respBodyBytes, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, readErr, "Failed to read response body")

	var respBody map[string]interface{}
	if unmarshalErr := json.Unmarshal(respBodyBytes, &respBody); unmarshalErr != nil {
		respBody = map[string]interface{}{"raw_body": string(respBodyBytes)}
	}
	return respBody, resp
}

// loginAs logs in through the REST endpoint and returns the JWT.
func loginAs(t *testing.T, email, password string) string {
	t.Helper()
	body, resp := doJSON(t, "POST", "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "Login as %s should succeed: %v", email, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token, "Login response should carry a token")
	return token
}

func TestIntegration_Ping(t *testing.T) {
	requireApp(t)

	resp, err := http.Get(pingEndpoint)
	require.NoError(t, err, "Request to %s should not fail", pingEndpoint)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode, "Expected status code OK (200)")

	bodyBytes, err := io.ReadAll(resp.Body)
	assert.NoError(t, err, "Should be able to read response body")
	assert.Equal(t, "pong", string(bodyBytes), "Response body should be 'pong'")
}

func TestIntegration_AdminLoginAndAgentLifecycle(t *testing.T) {
	requireApp(t)

	adminToken := loginAs(t, adminEmail, adminPassword)

	newEmail := fmt.Sprintf("agent_%d@integration.test", time.Now().UnixNano())
	body, resp := doJSON(t, "POST", "/v1/agents", adminToken, map[string]string{
		"name":     "New Agent",
		"email":    newEmail,
		"password": "N3wAgentPass!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "Creating an agent should succeed: %v", body)
	newAgentID, _ := body["id"].(string)
	require.NotEmpty(t, newAgentID, "Created agent should carry an id")

	listBody, listResp := doJSON(t, "GET", "/v1/agents", adminToken, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	agents, ok := listBody["agents"].([]interface{})
	require.True(t, ok, "Agent list response should carry an agents array")
	found := false
	for _, raw := range agents {
		if a, ok := raw.(map[string]interface{}); ok && a["email"] == newEmail {
			found = true
			break
		}
	}
	assert.True(t, found, "Newly created agent should appear in the agent list")

	// The freshly created agent can log in with the agent role.
	loginBody, loginResp := doJSON(t, "POST", "/v1/auth/login", "", map[string]string{
		"email":    newEmail,
		"password": "N3wAgentPass!",
	})
	require.Equal(t, http.StatusOK, loginResp.StatusCode, "New agent login should succeed: %v", loginBody)
	assert.Equal(t, "agent", loginBody["role"], "Agent accounts always log in with the agent role")

	// Agents must not reach admin endpoints.
	_, forbiddenResp := doJSON(t, "GET", "/v1/agents", loginBody["token"].(string), nil)
	assert.Equal(t, http.StatusForbidden, forbiddenResp.StatusCode, "Agent should not be able to list agents")
}

func TestIntegration_PublicInquiryAssignmentFlow(t *testing.T) {
	requireApp(t)

	// Step 1: a customer submits an inquiry without authentication.
	createBody, createResp := doJSON(t, "POST", "/v1/inquiries", "", map[string]interface{}{
		"customerName":  "Walk-in Customer",
		"customerEmail": "walkin@example.com",
		"message":       "Looking for a family umrah package in December",
	})
	require.Equal(t, http.StatusCreated, createResp.StatusCode, "Public inquiry submission should succeed: %v", createBody)
	inquiryID, _ := createBody["id"].(string)
	require.NotEmpty(t, inquiryID, "Created inquiry should carry an id")
	assert.Equal(t, "pending", createBody["status"], "New inquiries start pending")

	// Step 2: the admin assigns it to the seeded agent.
	adminToken := loginAs(t, adminEmail, adminPassword)
	assignBody, assignResp := doJSON(t, "PUT", "/v1/inquiries/"+inquiryID+"/assign", adminToken, map[string]interface{}{
		"agentId": seededAgentID,
	})
	require.Equal(t, http.StatusOK, assignResp.StatusCode, "Assignment should succeed: %v", assignBody)

	assigned, ok := assignBody["inquiry"].(map[string]interface{})
	require.True(t, ok, "Assignment response should carry the inquiry")
	assert.Equal(t, "in-progress", assigned["status"], "Assigning a pending inquiry advances it to in-progress")
	assert.Equal(t, seededAgentID, assigned["assignedAgent"], "Inquiry should record the assigned agent")

	agentInfo, ok := assignBody["agent"].(map[string]interface{})
	require.True(t, ok, "Assignment response should carry the resolved agent")
	assert.Equal(t, agentEmail, agentInfo["email"], "Assignment response should name the agent")

	// Step 3: the assignment side effect created a booking for the agent.
	bookingsBody, bookingsResp := doJSON(t, "GET", "/v1/bookings", adminToken, nil)
	require.Equal(t, http.StatusOK, bookingsResp.StatusCode)
	bookings, ok := bookingsBody["bookings"].([]interface{})
	require.True(t, ok, "Booking list response should carry a bookings array")
	found := false
	for _, raw := range bookings {
		if b, ok := raw.(map[string]interface{}); ok && b["inquiryId"] == inquiryID {
			found = true
			assert.Equal(t, seededAgentID, b["agentId"], "Side-effect booking should belong to the assigned agent")
			break
		}
	}
	assert.True(t, found, "Assignment should have created a booking for inquiry %s", inquiryID)

	// Step 4: the agent sees the inquiry and can work it.
	agentToken := loginAs(t, agentEmail, agentPassword)
	listBody, listResp := doJSON(t, "GET", "/v1/inquiries", agentToken, nil)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	inquiries, ok := listBody["inquiries"].([]interface{})
	require.True(t, ok, "Inquiry list response should carry an inquiries array")
	found = false
	for _, raw := range inquiries {
		if inq, ok := raw.(map[string]interface{}); ok && inq["id"] == inquiryID {
			found = true
			break
		}
	}
	assert.True(t, found, "Assigned inquiry should appear in the agent's list")

	respBody, respResp := doJSON(t, "POST", "/v1/inquiries/"+inquiryID+"/responses", agentToken, map[string]string{
		"message": "Thanks for reaching out, sending package options shortly.",
	})
	require.Equal(t, http.StatusOK, respResp.StatusCode, "Agent should be able to append a response: %v", respBody)
	responses, ok := respBody["responses"].([]interface{})
	require.True(t, ok, "Updated inquiry should carry responses")
	assert.Len(t, responses, 1, "Inquiry thread should have one response")
}

func TestIntegration_BookingInvoiceDownload(t *testing.T) {
	requireApp(t)

	adminToken := loginAs(t, adminEmail, adminPassword)

	createBody, createResp := doJSON(t, "POST", "/v1/bookings", adminToken, map[string]interface{}{
		"customerName": "Invoice Customer",
		"packageName":  "Economy Umrah 10 Nights",
		"agentId":      seededAgentID,
		"travellers":   4,
		"price":        1800.0,
		"currency":     "USD",
	})
	require.Equal(t, http.StatusCreated, createResp.StatusCode, "Creating a booking should succeed: %v", createBody)
	bookingID, _ := createBody["id"].(string)
	require.NotEmpty(t, bookingID, "Created booking should carry an id")

	// The agent downloads the invoice for their own booking.
	agentToken := loginAs(t, agentEmail, agentPassword)
	req, err := http.NewRequest("GET", testAppURL+"/v1/bookings/"+bookingID+"/invoice.pdf", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+agentToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "Invoice request should not fail")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, "Invoice download should succeed")
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"), "Invoice should be served as PDF")

	pdfBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfBytes, []byte("%PDF")), "Invoice body should be a PDF document")
}
