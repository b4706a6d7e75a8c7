package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoz/internal/lessons"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List available lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := lessons.Load(lessonDirs(cmd)...)
		if err != nil {
			return fmt.Errorf("load lessons: %w", err)
		}

		all := reg.All()
		if len(all) == 0 {
			fmt.Println("No lessons found.")
			return nil
		}

		fmt.Printf("%-20s  %-32s  %-5s  %-6s  %s\n", "ID", "Title", "Level", "Blocks", "Version")
		fmt.Println(strings.Repeat("─", 80))
		for _, l := range all {
			fmt.Printf("%-20s  %-32s  %-5s  %-6d  %s\n",
				truncate(l.ID, 20), truncate(l.Title, 32), l.Level, len(l.Blocks), l.Version)
		}
		return nil
	},
}

var lessonsValidateCmd = &cobra.Command{
	Use:   "validate <file|dir>...",
	Short: "Check lesson packs against the lesson schema",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				files = append(files, arg)
				continue
			}
			err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				ext := strings.ToLower(filepath.Ext(p))
				if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
					files = append(files, p)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		failed := 0
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err == nil {
				_, err = lessons.Parse(data, f)
			}
			if err != nil {
				failed++
				fmt.Printf("✗ %v\n", err)
				continue
			}
			fmt.Printf("✓ %s\n", f)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d lesson packs are invalid", failed, len(files))
		}
		return nil
	},
}

func init() {
	lessonsCmd.AddCommand(lessonsValidateCmd)
}
