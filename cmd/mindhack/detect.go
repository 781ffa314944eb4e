package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flexonb/mindhack/internal/catalog"
	"github.com/flexonb/mindhack/internal/crisis"
	"github.com/flexonb/mindhack/internal/lexicon"
)

var detectCmd = &cobra.Command{
	Use:   "detect <text>",
	Short: "Run crisis detection over a piece of text",
	Long: `Detect prints the crisis finding for the given text.

Keywords come from --keywords when set, otherwise from the persona named by
--persona, otherwise from the support-mode list when --mode=support, and
otherwise from the default persona list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDetect,
}

func init() {
	detectCmd.Flags().String("persona", "", "persona id whose crisis keywords are used")
	detectCmd.Flags().String("mode", "training", "conversation mode (training|support)")
	detectCmd.Flags().StringSlice("keywords", nil, "explicit keyword list")
	detectCmd.Flags().String("catalog", "", "catalog YAML file (defaults to the built-in catalog)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	keywords, err := detectKeywords(cmd)
	if err != nil {
		return err
	}
	finding := crisis.Detect(strings.Join(args, " "), keywords)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(finding)
}

func detectKeywords(cmd *cobra.Command) ([]string, error) {
	if kw, _ := cmd.Flags().GetStringSlice("keywords"); len(kw) > 0 {
		return kw, nil
	}
	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := catalog.ParseMode(modeFlag)
	if err != nil {
		return nil, err
	}
	if personaID, _ := cmd.Flags().GetString("persona"); personaID != "" {
		path, _ := cmd.Flags().GetString("catalog")
		cat, err := loadCatalog(path)
		if err != nil {
			return nil, err
		}
		p, err := cat.Persona(personaID)
		if err != nil {
			return nil, err
		}
		return p.CrisisKeywordsOrDefault(), nil
	}
	if mode == catalog.ModeSupport {
		return lexicon.SupportCrisisTerms, nil
	}
	return lexicon.DefaultPersonaCrisisKeywords, nil
}
