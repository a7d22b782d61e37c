package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/algobucks/platform/internal/config"
	"github.com/algobucks/platform/internal/database"
	"github.com/algobucks/platform/internal/logger"
	"github.com/algobucks/platform/internal/model"
	"github.com/algobucks/platform/internal/repository"
	"github.com/algobucks/platform/internal/service"
)

// Seeds a local database with demo contestants, a small problem
// catalog and one published duration-mode contest. Intended for dev
// environments only; everything is idempotent enough to re-run
// (duplicates are reported and skipped).
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	contestRepo := repository.NewContestRepository(pool)
	problemRepo := repository.NewProblemRepository(pool)

	userService := service.NewUserService(userRepo)
	problemService := service.NewProblemService(problemRepo)
	contestService := service.NewContestService(contestRepo, problemRepo, rdb, log)

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Admin ─────────────────────────────────────────────────────────
	admin, err := adminRepo.GetByEmail(ctx, "admin@algobucks.dev")
	if err != nil {
		fmt.Println("No demo admin found; run create-admin first with admin@algobucks.dev")
		return
	}

	// ─── Contestants ───────────────────────────────────────────────────
	names := []struct {
		username string
		fullName string
	}{
		{"ada", "Ada Laurent"}, {"bram", "Bram Okafor"}, {"cleo", "Cleo Tanaka"},
		{"dev", "Devika Rao"}, {"elio", "Elio Marchetti"}, {"fern", "Fernanda Silva"},
		{"gus", "Gus Lindqvist"}, {"hana", "Hana Novak"}, {"ivo", "Ivo Petrov"},
		{"june", "June Adeyemi"},
	}

	userCount := 0
	for _, n := range names {
		u := &model.User{
			Email:        n.username + "@algobucks.dev",
			Username:     n.username,
			FullName:     n.fullName,
			PasswordHash: "demo-pass", // hashed inside Create
			Codecoins:    500,
		}
		if err := userService.Create(ctx, u); err != nil {
			fmt.Printf("Skipping user %s: %v\n", n.username, err)
			continue
		}
		userCount++
	}
	fmt.Printf("Created %d contestants\n", userCount)

	// ─── Problems ──────────────────────────────────────────────────────
	starter := func(js, py string) json.RawMessage {
		b, _ := json.Marshal(map[string]string{"javascript": js, "python": py})
		return b
	}
	tests := func(pairs ...[2]string) json.RawMessage {
		type tc struct {
			Input    string `json:"input"`
			Expected string `json:"expected"`
		}
		cases := make([]tc, 0, len(pairs))
		for _, p := range pairs {
			cases = append(cases, tc{Input: p[0], Expected: p[1]})
		}
		b, _ := json.Marshal(cases)
		return b
	}

	problems := []*model.Problem{
		{
			Slug:          "two-sum",
			Title:         "Two Sum",
			Statement:     "Given an array of integers and a target, return indices of the two numbers that add up to the target.",
			Difficulty:    model.DifficultyEasy,
			TimeLimitMS:   2000,
			MemoryLimitKB: 262144,
			StarterCode:   starter("function twoSum(nums, target) {\n  // your code\n}", "def two_sum(nums, target):\n    pass"),
			SampleTests:   tests([2]string{"[2,7,11,15]\n9", "[0,1]"}, [2]string{"[3,2,4]\n6", "[1,2]"}),
		},
		{
			Slug:          "balanced-brackets",
			Title:         "Balanced Brackets",
			Statement:     "Determine whether a string of brackets is balanced.",
			Difficulty:    model.DifficultyEasy,
			TimeLimitMS:   2000,
			MemoryLimitKB: 262144,
			StarterCode:   starter("function isBalanced(s) {\n  // your code\n}", "def is_balanced(s):\n    pass"),
			SampleTests:   tests([2]string{"([]{})", "true"}, [2]string{"([)]", "false"}),
		},
		{
			Slug:          "longest-common-subsequence",
			Title:         "Longest Common Subsequence",
			Statement:     "Given two strings, return the length of their longest common subsequence.",
			Difficulty:    model.DifficultyMedium,
			TimeLimitMS:   3000,
			MemoryLimitKB: 262144,
			StarterCode:   starter("function lcs(a, b) {\n  // your code\n}", "def lcs(a, b):\n    pass"),
			SampleTests:   tests([2]string{"abcde\nace", "3"}, [2]string{"abc\ndef", "0"}),
		},
		{
			Slug:          "median-of-streams",
			Title:         "Median of Streams",
			Statement:     "Maintain the running median of a stream of integers.",
			Difficulty:    model.DifficultyHard,
			TimeLimitMS:   5000,
			MemoryLimitKB: 524288,
			StarterCode:   starter("function medians(stream) {\n  // your code\n}", "def medians(stream):\n    pass"),
			SampleTests:   tests([2]string{"[5,15,1,3]", "[5,10,5,4]"}),
		},
	}

	problemCount := 0
	for _, p := range problems {
		if err := problemService.Create(ctx, p); err != nil {
			fmt.Printf("Skipping problem %s: %v\n", p.Slug, err)
			continue
		}
		problemCount++
	}
	fmt.Printf("Created %d problems\n", problemCount)

	// ─── Contest ───────────────────────────────────────────────────────
	contest := &model.Contest{
		Slug:            "weekly-sprint-1",
		Title:           "Weekly Sprint #1",
		Description:     "Four problems, ninety minutes on your own clock. Join whenever you are ready.",
		Rules:           "Solo work only. Any language the judge supports.",
		PrizeDetails:    "Top three finishers split a 1500 codecoin pool.",
		DurationMinutes: 90,
		EntryFee:        50,
		CreatedBy:       admin.ID,
	}
	if err := contestService.Create(ctx, contest); err != nil {
		fmt.Printf("Skipping contest %s: %v\n", contest.Slug, err)
		fmt.Println("\nSeed completed (contest already present).")
		return
	}

	points := []int{100, 100, 250, 400}
	for i, p := range problems {
		if p.ID == uuid.Nil {
			continue
		}
		req := &model.AttachProblemRequest{ProblemID: p.ID, OrderNum: i, Points: points[i]}
		if err := contestService.AttachProblem(ctx, contest.ID, req); err != nil {
			fmt.Printf("Attach %s failed: %v\n", p.Slug, err)
		}
	}

	if err := contestService.Publish(ctx, contest.ID); err != nil {
		fmt.Printf("Publish failed: %v\n", err)
		return
	}

	fmt.Printf("\nSeed completed! Contest %q published with %d problems.\n", contest.Title, problemCount)
}
