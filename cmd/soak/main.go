// Soak test runner for long-duration pose stabilization.
//
// This tool drives a Stabilizer with a synthetic noisy walking trace and
// monitors it for memory growth, non-finite output and bone length drift
// over extended periods.
//
// Usage:
//
//	go run ./cmd/soak -duration 1h
//	go run ./cmd/soak -duration 24h -realtime  # pace frames at -fps
//
// Exposes pprof endpoint at :6060 for live profiling:
//
//	curl http://localhost:6060/debug/pprof/heap > heap.pprof
//	go tool pprof heap.pprof
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // Enable pprof endpoints
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/thesyncim/posekf/pkg/posekf"
	"github.com/thesyncim/posekf/pkg/posekf/testutil"
)

const (
	boneTolerance  = 1e-6
	heapLimitMB    = 100
	statusInterval = time.Minute

	// Frames between injected wrist dropouts and empty frames.
	dropoutEvery = 97
	emptyEvery   = 500
)

// SoakResult contains the results of a soak test run.
type SoakResult struct {
	Duration      time.Duration
	TotalFrames   int64
	Stats         posekf.Stats
	MaxBoneError  float64
	NonFinite     int
	PeakHeapMB    float64
	TotalGCCycles uint32
	Status        string
}

// SoakConfig holds the command line parameters.
type SoakConfig struct {
	Duration time.Duration
	FPS      float64
	Noise    float64
	Realtime bool
}

func main() {
	duration := flag.Duration("duration", time.Hour, "Test duration (e.g., 1h, 24h), in trace time")
	fps := flag.Float64("fps", 30, "Frame rate of the synthetic trace")
	noise := flag.Float64("noise", 0.05, "Depth noise amplitude in meters")
	pprofPort := flag.Int("pprof-port", 6060, "Port for pprof HTTP server")
	realtime := flag.Bool("realtime", false, "Pace frames at -fps instead of running flat out")
	flag.Parse()

	if *fps <= 0 {
		fmt.Fprintln(os.Stderr, "-fps must be positive")
		os.Exit(2)
	}

	fmt.Printf("Pose Soak Test Runner\n")
	fmt.Printf("=====================\n")
	fmt.Printf("Duration: %v at %.0f fps (realtime: %v)\n", *duration, *fps, *realtime)
	fmt.Printf("Noise:    %.3f m\n", *noise)
	fmt.Printf("Pprof:    http://localhost:%d/debug/pprof/\n", *pprofPort)
	fmt.Printf("\n")

	go func() {
		addr := fmt.Sprintf(":%d", *pprofPort)
		if err := http.ListenAndServe(addr, nil); err != nil {
			fmt.Printf("Warning: pprof server failed: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := runSoakTest(ctx, SoakConfig{
		Duration: *duration,
		FPS:      *fps,
		Noise:    *noise,
		Realtime: *realtime,
	})

	printSummary(result)

	if result.Status == "PASS" {
		os.Exit(0)
	}
	os.Exit(1)
}

func runSoakTest(ctx context.Context, cfg SoakConfig) SoakResult {
	stabilizer := posekf.NewStabilizer(posekf.DefaultStabilizerConfig(), nil)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	result := SoakResult{Status: "PASS"}
	totalFrames := int64(cfg.Duration.Seconds() * cfg.FPS)
	frameInterval := time.Duration(float64(time.Second) / cfg.FPS)

	var ticker *time.Ticker
	if cfg.Realtime {
		ticker = time.NewTicker(frameInterval)
		defer ticker.Stop()
	}

	startTime := time.Now()
	lastStatusTime := startTime
	fmt.Printf("[%s] Starting soak test (%d frames)...\n", formatDuration(0), totalFrames)

	for i := int64(0); i < totalFrames; i++ {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return finish(result, stabilizer, startTime)
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return finish(result, stabilizer, startTime)
		}

		frame := stabilizer.Process(nextFrame(i, cfg, rng))
		result.TotalFrames++
		traceTime := time.Duration(i) * frameInterval

		if frame.Valid {
			pose := testutil.Pose(frame.Joints)
			if !testutil.IsFinite(pose) {
				fmt.Printf("[%s] ERROR: non-finite joint at frame %d\n", formatDuration(traceTime), i)
				result.NonFinite++
				result.Status = "FAIL"
			} else if e := testutil.BoneLengthError(pose); e > result.MaxBoneError {
				result.MaxBoneError = e
				if e > boneTolerance {
					fmt.Printf("[%s] ERROR: bone length off by %.3g m at frame %d\n", formatDuration(traceTime), e, i)
					result.Status = "FAIL"
				}
			}
		}

		if now := time.Now(); now.Sub(lastStatusTime) >= statusInterval {
			lastStatusTime = now
			heapMB := sampleMemory(&result)
			stats := stabilizer.Stats()
			fmt.Printf("[%s] Frames: %d, Skipped: %d, Missing: %d, HeapAlloc: %.2f MB, NumGC: %d\n",
				formatDuration(traceTime), stats.Frames, stats.Skipped, stats.MissingLandmarks,
				heapMB, result.TotalGCCycles)

			if heapMB > heapLimitMB {
				fmt.Printf("[%s] ERROR: Memory limit exceeded: %.2f MB\n", formatDuration(traceTime), heapMB)
				result.Status = "FAIL"
			}
		}
	}
	return finish(result, stabilizer, startTime)
}

// nextFrame returns the landmarks of frame i, with periodic wrist dropouts
// and empty frames.
func nextFrame(i int64, cfg SoakConfig, rng *rand.Rand) []*posekf.Landmark {
	if i > 0 && i%emptyEvery == 0 {
		return nil
	}
	phase := 2 * math.Pi * float64(i) / cfg.FPS
	lms := testutil.Landmarks(testutil.WalkingPose(phase), cfg.Noise, rng)
	if i > 0 && i%dropoutEvery == 0 {
		lms[posekf.LandmarkMapping[posekf.LeftWrist]] = nil
	}
	return lms
}

func finish(result SoakResult, s *posekf.Stabilizer, start time.Time) SoakResult {
	result.Duration = time.Since(start)
	result.Stats = s.Stats()
	sampleMemory(&result)
	if result.Stats.Skipped > 0 {
		result.Status = "FAIL"
	}
	return result
}

func sampleMemory(result *SoakResult) float64 {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	heapMB := float64(memStats.HeapAlloc) / (1024 * 1024)
	if heapMB > result.PeakHeapMB {
		result.PeakHeapMB = heapMB
	}
	result.TotalGCCycles = memStats.NumGC
	return heapMB
}

func printSummary(result SoakResult) {
	fmt.Printf("\n")
	fmt.Printf("Soak Test Complete\n")
	fmt.Printf("==================\n")
	fmt.Printf("Wall time:         %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Total frames:      %d\n", result.TotalFrames)
	fmt.Printf("Pose frames:       %d\n", result.Stats.Frames)
	fmt.Printf("Skipped updates:   %d\n", result.Stats.Skipped)
	fmt.Printf("Missing landmarks: %d\n", result.Stats.MissingLandmarks)
	fmt.Printf("Degenerate bones:  %d\n", result.Stats.DegenerateBones)
	fmt.Printf("Max bone error:    %.3g m\n", result.MaxBoneError)
	fmt.Printf("Peak HeapAlloc:    %.2f MB\n", result.PeakHeapMB)
	fmt.Printf("Total GC cycles:   %d\n", result.TotalGCCycles)
	fmt.Printf("Status:            %s\n", result.Status)
	fmt.Printf("\n")

	fmt.Printf("Pass Criteria:\n")
	fmt.Printf("  - No panics:              %s\n", checkMark(true))
	fmt.Printf("  - All output finite:      %s\n", checkMark(result.NonFinite == 0))
	fmt.Printf("  - Bone lengths held:      %s\n", checkMark(result.MaxBoneError <= boneTolerance))
	fmt.Printf("  - No skipped updates:     %s\n", checkMark(result.Stats.Skipped == 0))
	fmt.Printf("  - Peak memory < %d MB:   %s\n", heapLimitMB, checkMark(result.PeakHeapMB < heapLimitMB))
}

func formatDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func checkMark(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}
