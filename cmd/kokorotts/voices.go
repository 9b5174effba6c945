package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/example/go-kokoro-tts/internal/voice"
	"github.com/spf13/cobra"
)

func newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List voices from the manifest",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			vm, err := voice.NewManager(cfg.Paths.VoiceManifest)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLANG\tLICENSE\tPATH")
			for _, v := range vm.List() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.ID, v.Lang, v.License, v.Path)
			}
			return w.Flush()
		},
	}

	return cmd
}
