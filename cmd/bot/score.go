package main

import (
	"fmt"

	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score <user-id>",
	Short: "Show a user's score and active question from the session store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		uid := service.UserID(args[0])

		score, err := store.Score(ctx, uid)
		if err != nil {
			return err
		}
		question, active, err := store.CurrentQuestion(ctx, uid)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User %s: score %d\n", uid, score)
		if active {
			fmt.Fprintf(out, "Active question: %s\n", question)
		} else {
			fmt.Fprintln(out, "No active question")
		}
		return nil
	},
}
