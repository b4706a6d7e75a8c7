package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoz/internal/persist"
)

var resetCmd = &cobra.Command{
	Use:   "reset [lesson-id]",
	Short: "Clear saved scores and settings for a lesson, or all lessons with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		yes, _ := cmd.Flags().GetBool("yes")
		if all == (len(args) == 1) {
			return fmt.Errorf("give a lesson id or --all")
		}

		e, err := openEnv(cmd, envOptions{})
		if err != nil {
			return err
		}
		defer e.Close()
		if e.store == nil {
			fmt.Println("Nothing to reset: the database could not be opened.")
			return nil
		}

		ctx := cmd.Context()
		kv := e.store.KVRepo()

		var keys []string
		if all {
			keys, err = kv.Keys(ctx, persist.PageKey(""))
			if err != nil {
				return err
			}
		} else {
			key := persist.PageKey(args[0])
			raw, err := kv.Load(ctx, key)
			if err != nil {
				return err
			}
			if raw == nil {
				fmt.Printf("Nothing saved for %q.\n", args[0])
				return nil
			}
			keys = []string{key}
		}
		if len(keys) == 0 {
			fmt.Println("Nothing to reset.")
			return nil
		}

		if !yes {
			fmt.Printf("Reset %d lesson page(s) in %s? [y/N] ", len(keys), e.dbPath)
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		for _, k := range keys {
			if err := kv.Remove(ctx, k); err != nil {
				return err
			}
			fmt.Println("reset", strings.TrimPrefix(k, persist.PageKey("")))
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("all", false, "Reset every lesson")
	resetCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
