package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matthewsinclair/arca-notionex/internal/sync"
)

// promptTimeLayout keeps prompt timestamps short enough to scan.
const promptTimeLayout = "2006-01-02 15:04"

// conflictPrompter resolves pull conflicts through numbered prompts on a
// plain reader, for runs without a usable terminal.
type conflictPrompter struct {
	reader *bufio.Reader
}

func newConflictPrompter(r io.Reader) *conflictPrompter {
	return &conflictPrompter{reader: bufio.NewReader(r)}
}

// resolveAll prompts for each conflict in turn and returns the chosen
// strategies by document path. Documents without a decision stay
// conflicted.
func (cp *conflictPrompter) resolveAll(entries []sync.ConflictEntry) map[string]sync.Strategy {
	resolved := make(map[string]sync.Strategy)

	fmt.Printf("\n=== Conflict Review ===\n")
	fmt.Printf("Found %d document(s) that need a decision.\n\n", len(entries))

	for i, entry := range entries {
		fmt.Printf("--- Conflict %d of %d: %s ---\n", i+1, len(entries), entry.Path)
		fmt.Printf("State: %s\n", entry.Status)
		if !entry.LocalModifiedAt.IsZero() {
			fmt.Printf("Local edited:  %s\n", entry.LocalModifiedAt.Format(promptTimeLayout))
		}
		if !entry.RemoteEditedAt.IsZero() {
			fmt.Printf("Remote edited: %s\n", entry.RemoteEditedAt.Format(promptTimeLayout))
		}
		if entry.Similarity > 0 {
			fmt.Printf("Content match: %.0f%%\n", entry.Similarity*100)
		}

		choice, err := cp.promptResolution()
		if err != nil {
			fmt.Printf("\nInput closed; leaving the remaining document(s) conflicted.\n")
			return resolved
		}

		if choice != "" {
			resolved[entry.Path] = choice
			fmt.Printf("✓ %s resolves with %s\n\n", entry.Path, choice)
		} else {
			fmt.Printf("- %s stays conflicted\n\n", entry.Path)
		}
	}

	return resolved
}

// promptResolution asks for one decision. An empty strategy means leave
// the document conflicted.
func (cp *conflictPrompter) promptResolution() (sync.Strategy, error) {
	fmt.Println("\nHow should this document be resolved?")
	fmt.Println("  1. Keep the local file (push it on the next sync)")
	fmt.Println("  2. Take the remote page (overwrite the local file)")
	fmt.Println("  3. Newest edit wins")
	fmt.Println("  4. Leave it conflicted")
	fmt.Print("\nEnter choice [1-4]: ")

	for {
		response, err := cp.reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}

		response = strings.TrimSpace(response)
		choice, err := strconv.Atoi(response)
		if err != nil || choice < 1 || choice > 4 {
			fmt.Print("Invalid choice. Enter 1-4: ")
			continue
		}

		switch choice {
		case 1:
			return sync.StrategyLocalWins, nil
		case 2:
			return sync.StrategyRemoteWins, nil
		case 3:
			return sync.StrategyNewestWins, nil
		default:
			return "", nil
		}
	}
}
