package main

import (
	"fmt"

	"github.com/PoluyanbIch/quizbot/internal/service"
	"github.com/spf13/cobra"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Load the question source and print its size and a sample",
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := service.LoadBank(cfg.QuestionsPath, cfg.QuestionsEncoding)
		if err != nil {
			return err
		}

		sample, _ := cmd.Flags().GetInt("sample")
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Questions: %d\n", bank.Size())
		for i := 0; i < sample; i++ {
			q := bank.PickRandom()
			fmt.Fprintf(out, "\n%s\n  -> %s (matches %q)\n", q.Question, q.Answer, service.NormalizeAnswer(q.Answer))
		}
		return nil
	},
}

func init() {
	bankCmd.Flags().Int("sample", 3, "Number of random questions to print")
}
