package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cerebro"

	"github.com/google/uuid"
)

// StudySet is the JSON document the CLI emits.
type StudySet struct {
	Source     string              `json:"source"`
	Flashcards []cerebro.Flashcard `json:"flashcards,omitempty"`
	MCQs       []cerebro.MCQ       `json:"mcqs,omitempty"`
}

func main() {
	var (
		inputFile  = flag.String("input", "", "Source document (.pdf, .txt or .md) (required)")
		numCards   = flag.Int("cards", 10, "Number of flashcards to generate (0 to skip)")
		numMCQs    = flag.Int("mcqs", 5, "Number of multiple choice questions to generate (0 to skip)")
		outputFile = flag.String("output", "", "Output file for study set JSON (default: stdout)")
		playMode   = flag.Bool("play", false, "Answer the generated questions interactively")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	cerebro.SetVerbose(*verbose)

	if *inputFile == "" {
		log.Fatal("Input file is required. Use -input flag.")
	}

	cfg := cerebro.LoadConfig()
	if cfg.ChatAPIKey == "" {
		log.Fatal("Chat API key is required. Set CHAT_API_KEY in the environment or a .env file.")
	}

	text, err := cerebro.ExtractText(*inputFile)
	if err != nil {
		log.Fatalf("Failed to extract text from %s: %v", *inputFile, err)
	}
	if strings.TrimSpace(text) == "" {
		log.Fatalf("No text could be extracted from %s", *inputFile)
	}

	if *verbose {
		log.Printf("Extracted %d characters from %s", len(text), *inputFile)
		log.Printf("Target flashcards: %d, MCQs: %d", *numCards, *numMCQs)
	}

	generator := cerebro.NewGenerator(cfg.ChatAPIKey, cfg.ChatBaseURL, cfg.ChatModel)
	cycleID := uuid.New().String()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	set := StudySet{Source: *inputFile}

	if *numCards > 0 {
		req := cerebro.GenerationRequest{SourceText: text, Count: *numCards}
		logger, err := cerebro.NewGenLogger(cycleID, "flashcards", *numCards)
		if err != nil {
			log.Printf("Warning: could not create generation log: %v", err)
		}
		cards, raw, err := generator.GenerateFlashcards(ctx, req, logger)
		if logger != nil {
			logger.Close()
		}
		if err != nil {
			log.Fatalf("Failed to generate flashcards: %v", err)
		}
		if len(cards) == 0 {
			log.Printf("Warning: no flashcards could be parsed from the response (%d characters)", len(raw))
		}
		set.Flashcards = cards
	}

	if *numMCQs > 0 {
		req := cerebro.GenerationRequest{SourceText: text, Count: *numMCQs}
		logger, err := cerebro.NewGenLogger(cycleID, "mcq", *numMCQs)
		if err != nil {
			log.Printf("Warning: could not create generation log: %v", err)
		}
		mcqs, diags, raw, err := generator.GenerateMCQs(ctx, req, nil, logger)
		if logger != nil {
			logger.Close()
		}
		if err != nil {
			log.Fatalf("Failed to generate questions: %v", err)
		}
		if *verbose {
			log.Printf("MCQ validation: %d candidates, %d valid, %d rejected",
				diags.Candidates, diags.Valid, diags.Rejected)
			for _, reason := range diags.Reasons {
				log.Printf("  rejected: %s", reason)
			}
		}
		if len(mcqs) == 0 {
			log.Printf("Warning: no valid questions in the response (%d characters)", len(raw))
		}
		set.MCQs = mcqs
	}

	if *playMode {
		playStudySet(set)
		return
	}

	output, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal study set: %v", err)
	}

	if *outputFile != "" {
		err = os.WriteFile(*outputFile, output, 0644)
		if err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Study set saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}

	if *verbose {
		log.Printf("Generation completed successfully!")
	}
}

func playStudySet(set StudySet) {
	scanner := bufio.NewScanner(os.Stdin)

	if len(set.Flashcards) > 0 {
		fmt.Printf("📇 %d flashcards from %s\n\n", len(set.Flashcards), set.Source)
		for i, card := range set.Flashcards {
			fmt.Printf("Card %d/%d:\n", i+1, len(set.Flashcards))
			fmt.Printf("Q: %s\n", card.Question)
			fmt.Print("(press Enter to reveal) ")
			scanner.Scan()
			fmt.Printf("A: %s\n\n", card.Answer)
		}
	}

	if len(set.MCQs) == 0 {
		return
	}

	fmt.Printf("🎯 %d questions from %s\n\n", len(set.MCQs), set.Source)
	labels := "ABCDEFGH"
	score := 0

	for i, q := range set.MCQs {
		fmt.Printf("Question %d/%d:\n", i+1, len(set.MCQs))
		fmt.Printf("%s\n\n", q.Question)

		n := len(q.Options)
		if n > len(labels) {
			n = len(labels)
		}
		for j := 0; j < n; j++ {
			fmt.Printf("%c) %s\n", labels[j], q.Options[j])
		}
		fmt.Println()

		var pick int
		for {
			fmt.Printf("Your answer (%c-%c): ", labels[0], labels[n-1])
			scanner.Scan()
			answer := strings.ToUpper(strings.TrimSpace(scanner.Text()))
			if len(answer) == 1 {
				pick = strings.IndexByte(labels[:n], answer[0])
				if pick >= 0 {
					break
				}
			}
			fmt.Printf("Please enter a letter between %c and %c\n", labels[0], labels[n-1])
		}

		if q.Options[pick] == q.Answer {
			fmt.Println("✅ Correct!")
			score++
		} else {
			fmt.Printf("❌ Incorrect. The correct answer is: %s\n", q.Answer)
		}
		fmt.Println()
		fmt.Println(strings.Repeat("─", 50))
		fmt.Println()
	}

	percentage := float64(score) / float64(len(set.MCQs)) * 100
	fmt.Printf("🏆 Final score: %d/%d (%.1f%%)\n", score, len(set.MCQs), percentage)

	if percentage >= 80 {
		fmt.Println("🌟 Excellent work!")
	} else if percentage >= 60 {
		fmt.Println("👍 Good job!")
	} else {
		fmt.Println("📚 Keep studying!")
	}
}
