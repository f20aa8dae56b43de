package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"event-registration/internal/auth"
	"event-registration/internal/config"
	domain "event-registration/internal/domain/registration"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// LoadTestConfig holds configuration for admission load testing
type LoadTestConfig struct {
	BaseURL         string
	NumSubjects     int
	NumEvents       int
	ConcurrentUsers int
	RequestsPerUser int
}

// LoadTestResult holds the results of load testing
type LoadTestResult struct {
	TotalRequests     int
	AdmittedReqs      int
	RejectedReqs      int
	FailedReqs        int
	AvgResponseTimeMs float64
	MaxResponseTimeMs int64
	MinResponseTimeMs int64
	ThroughputRPS     float64
	ErrorsByType      map[string]int
}

// LoadTester drives concurrent admission attempts against a running server.
// Rejections (409: already registered or fully booked) are the expected
// outcome once events fill up, so they are counted separately from failures.
type LoadTester struct {
	config    LoadTestConfig
	client    *http.Client
	tokens    []string
	events    []uuid.UUID
	results   LoadTestResult
	mutex     sync.Mutex
	startTime time.Time
}

// NewLoadTester creates a new load tester
func NewLoadTester(cfg LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		results: LoadTestResult{
			ErrorsByType: make(map[string]int),
		},
	}
}

// Initialize mints a bearer token per synthetic subject and generates event
// ids. The jwt secret must match the target server's.
func (lt *LoadTester) Initialize(secret string, tokenTTL time.Duration) error {
	fmt.Println("Initializing load test data...")

	lt.tokens = make([]string, lt.config.NumSubjects)
	for i := 0; i < lt.config.NumSubjects; i++ {
		token, err := auth.NewToken(uuid.New(), fmt.Sprintf("loadtest-%d@example.com", i), domain.RoleMember, secret, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to mint token for subject %d: %w", i, err)
		}
		lt.tokens[i] = token
	}

	lt.events = make([]uuid.UUID, lt.config.NumEvents)
	for i := 0; i < lt.config.NumEvents; i++ {
		lt.events[i] = uuid.New()
	}

	fmt.Printf("Generated %d subjects and %d events\n", len(lt.tokens), len(lt.events))
	return nil
}

// RunLoadTest executes the load test
func (lt *LoadTester) RunLoadTest() {
	fmt.Printf("Starting load test with %d concurrent users...\n", lt.config.ConcurrentUsers)

	lt.startTime = time.Now()
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, lt.config.ConcurrentUsers)
	totalRequests := lt.config.ConcurrentUsers * lt.config.RequestsPerUser

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)

		go func(requestID int) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			lt.attemptAdmission(requestID)
		}(i)

		time.Sleep(10 * time.Millisecond)
	}

	wg.Wait()

	lt.calculateMetrics()
	lt.printResults()
}

// attemptAdmission fires one registration request as a synthetic subject
func (lt *LoadTester) attemptAdmission(requestID int) {
	startTime := time.Now()

	token := lt.tokens[requestID%len(lt.tokens)]
	eventID := lt.events[requestID%len(lt.events)]

	jsonData, err := json.Marshal(domain.RegisterRequest{EventID: eventID})
	if err != nil {
		lt.recordError("json_marshal")
		return
	}

	url := fmt.Sprintf("%s/api/v1/registrations", lt.config.BaseURL)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		lt.recordError("build_request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := lt.client.Do(req)
	responseTime := time.Since(startTime)

	if err != nil {
		lt.recordError("http_request")
		return
	}
	defer resp.Body.Close()

	lt.recordResponse(resp.StatusCode, responseTime)
}

// recordResponse records the response metrics
func (lt *LoadTester) recordResponse(statusCode int, responseTime time.Duration) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	responseTimeMs := responseTime.Milliseconds()

	if lt.results.MaxResponseTimeMs < responseTimeMs {
		lt.results.MaxResponseTimeMs = responseTimeMs
	}
	if lt.results.MinResponseTimeMs == 0 || lt.results.MinResponseTimeMs > responseTimeMs {
		lt.results.MinResponseTimeMs = responseTimeMs
	}

	currentAvg := lt.results.AvgResponseTimeMs
	currentCount := float64(lt.results.TotalRequests)
	lt.results.AvgResponseTimeMs = (currentAvg*(currentCount-1) + float64(responseTimeMs)) / currentCount

	switch {
	case statusCode == http.StatusCreated:
		lt.results.AdmittedReqs++
	case statusCode == http.StatusConflict:
		lt.results.RejectedReqs++
	default:
		lt.results.FailedReqs++
		lt.results.ErrorsByType[fmt.Sprintf("http_%d", statusCode)]++
	}
}

// recordError records an error that occurred during testing
func (lt *LoadTester) recordError(errorType string) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	lt.results.FailedReqs++
	lt.results.ErrorsByType[errorType]++
}

// calculateMetrics calculates final test metrics
func (lt *LoadTester) calculateMetrics() {
	totalDuration := time.Since(lt.startTime)
	lt.results.ThroughputRPS = float64(lt.results.TotalRequests) / totalDuration.Seconds()
}

// printResults displays the load test results
func (lt *LoadTester) printResults() {
	fmt.Println("\n" + strings.Repeat("=", 80))

	fmt.Printf("Test Configuration:\n")
	fmt.Printf("  - Concurrent Users: %d\n", lt.config.ConcurrentUsers)
	fmt.Printf("  - Requests per User: %d\n", lt.config.RequestsPerUser)
	fmt.Printf("  - Total Subjects: %d\n", lt.config.NumSubjects)
	fmt.Printf("  - Total Events: %d\n", lt.config.NumEvents)

	fmt.Printf("\nOverall Performance:\n")
	fmt.Printf("  - Total Requests: %d\n", lt.results.TotalRequests)
	fmt.Printf("  - Admitted: %d (%.2f%%)\n",
		lt.results.AdmittedReqs,
		float64(lt.results.AdmittedReqs)/float64(lt.results.TotalRequests)*100)
	fmt.Printf("  - Rejected (duplicate/full): %d (%.2f%%)\n",
		lt.results.RejectedReqs,
		float64(lt.results.RejectedReqs)/float64(lt.results.TotalRequests)*100)
	fmt.Printf("  - Failed: %d (%.2f%%)\n",
		lt.results.FailedReqs,
		float64(lt.results.FailedReqs)/float64(lt.results.TotalRequests)*100)

	fmt.Printf("\nResponse Time Metrics:\n")
	fmt.Printf("  - Average: %.2f ms\n", lt.results.AvgResponseTimeMs)
	fmt.Printf("  - Minimum: %d ms\n", lt.results.MinResponseTimeMs)
	fmt.Printf("  - Maximum: %d ms\n", lt.results.MaxResponseTimeMs)

	fmt.Printf("\nThroughput:\n")
	fmt.Printf("  - Requests per Second: %.2f\n", lt.results.ThroughputRPS)

	if len(lt.results.ErrorsByType) > 0 {
		fmt.Printf("\nError Breakdown:\n")
		for errorType, count := range lt.results.ErrorsByType {
			fmt.Printf("  - %s: %d\n", errorType, count)
		}
	}
}

var (
	ltBaseURL    string
	ltSubjects   int
	ltEvents     int
	ltConcurrent int
	ltRequests   int
)

var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Run a concurrent admission load test",
	Long: `Fire concurrent registration requests at a running server to observe
admission behavior under contention. Requires the server's jwt secret in
config so synthetic subjects can be minted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		tester := NewLoadTester(LoadTestConfig{
			BaseURL:         ltBaseURL,
			NumSubjects:     ltSubjects,
			NumEvents:       ltEvents,
			ConcurrentUsers: ltConcurrent,
			RequestsPerUser: ltRequests,
		})

		ttl := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
		if err := tester.Initialize(cfg.Auth.JWTSecret, ttl); err != nil {
			return err
		}

		tester.RunLoadTest()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadtestCmd)
	loadtestCmd.Flags().StringVar(&ltBaseURL, "url", "http://localhost:3004", "Base URL of the target server")
	loadtestCmd.Flags().IntVar(&ltSubjects, "subjects", 50, "Number of synthetic subjects")
	loadtestCmd.Flags().IntVar(&ltEvents, "events", 10, "Number of synthetic events")
	loadtestCmd.Flags().IntVar(&ltConcurrent, "concurrent", 20, "Concurrent users")
	loadtestCmd.Flags().IntVar(&ltRequests, "requests", 10, "Requests per user")
}
