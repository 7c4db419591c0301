package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lakitu0/lakitu/internal/app"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List and detect supported games",
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List games with a catalog in the games directory",
	Args:  cobra.NoArgs,
	RunE:  runGamesList,
}

var gamesDetectCmd = &cobra.Command{
	Use:   "detect <message...>",
	Short: "Detect which game a message refers to",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGamesDetect,
}

func init() {
	gamesCmd.AddCommand(gamesListCmd)
	gamesCmd.AddCommand(gamesDetectCmd)
	rootCmd.AddCommand(gamesCmd)
}

func runGamesList(_ *cobra.Command, _ []string) error {
	return withApp(func(_ context.Context, a *app.App) error {
		games := a.Detector.Games()
		if len(games) == 0 {
			fmt.Println("No game catalogs found. Add <game>.csv files to the games directory.")
			return nil
		}
		for _, g := range games {
			fmt.Println(g)
		}
		return nil
	})
}

func runGamesDetect(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		message := strings.Join(args, " ")
		game := a.Detector.Detect(ctx, message)
		if game == "" {
			fmt.Println("No game detected.")
			return nil
		}
		fmt.Println(game)
		return nil
	})
}
