// cmd/covidvisor/ask.go
package main

import (
	"github.com/spf13/cobra"

	"github.com/o-richard/covidvisor/internal/console"
	"github.com/o-richard/covidvisor/internal/speech"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		audio []string
		speak bool
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer questions from stdin or recordings using the case statistics store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pipeline, rdb, err := newPipeline(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			if rdb != nil {
				defer rdb.Close()
			}

			store, db, err := openStore(ctx, a.cfg, a.log)
			if err != nil {
				return err
			}
			defer db.Close()

			handler := answerHandler(pipeline, newEngine(a.cfg, store, a.log))
			if speak {
				speaker := speech.NewCommandSpeaker(a.cfg.Speech.SpeakCommand, a.cfg.Speech.SpeakArgs...)
				handler = speakingHandler(handler, speaker, a.log)
			}

			if len(audio) == 0 {
				return console.NewLoop(cmd.InOrStdin(), cmd.OutOrStdout(), handler, a.log).Run(ctx)
			}

			transcriber, err := newTranscriber(a.cfg, a.log)
			if err != nil {
				return err
			}
			return answerRecordings(ctx, audio, transcriber, handler, cmd.OutOrStdout(), a.log)
		},
	}

	cmd.Flags().StringSliceVar(&audio, "audio", nil, "recorded questions (wav) to transcribe and answer instead of reading stdin")
	cmd.Flags().BoolVar(&speak, "speak", false, "read every answer aloud with speech.speak_command")
	return cmd
}
