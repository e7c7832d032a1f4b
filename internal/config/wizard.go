package config

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// intervalChoices are the interval options offered by the wizard, in
// display order.
var intervalChoices = []SyncInterval{
	IntervalManual,
	Hourly(1), Hourly(2), Hourly(3), Hourly(4), Hourly(6), Hourly(8), Hourly(12),
	IntervalDaily,
}

func intervalLabels() []string {
	labels := make([]string, len(intervalChoices))
	for i, iv := range intervalChoices {
		switch iv {
		case IntervalManual:
			labels[i] = "manual — only when triggered"
		case IntervalDaily:
			labels[i] = "daily"
		default:
			d, _ := iv.Duration()
			labels[i] = fmt.Sprintf("every %d hours", int(d.Hours()))
		}
	}
	return labels
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .parksync.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to parksync! Let's connect your site.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Site URL.
	sitePrompt := promptui.Prompt{
		Label: "Site URL (e.g. https://example.com)",
		Validate: func(s string) error {
			_, err := NormalizeSiteURL(s)
			return err
		},
	}
	rawURL, err := sitePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("site URL: %w", err)
	}
	cfg.SiteURL, _ = NormalizeSiteURL(rawURL)

	// 2. Endpoint slugs. Discovery can refine these later; defaults cover
	// the common case.
	communityPrompt := promptui.Prompt{
		Label:   "Community endpoint (rest_base)",
		Default: cfg.Community.Endpoint,
	}
	if cfg.Community.Endpoint, err = communityPrompt.Run(); err != nil {
		return nil, fmt.Errorf("community endpoint: %w", err)
	}

	homePrompt := promptui.Prompt{
		Label:   "Home endpoint (rest_base)",
		Default: cfg.Home.Endpoint,
	}
	if cfg.Home.Endpoint, err = homePrompt.Run(); err != nil {
		return nil, fmt.Errorf("home endpoint: %w", err)
	}

	// 3. Sync intervals.
	for _, kind := range []SyncKind{KindCommunity, KindHome} {
		sel := promptui.Select{
			Label: fmt.Sprintf("Sync interval for %s", kind),
			Items: intervalLabels(),
		}
		idx, _, err := sel.Run()
		if err != nil {
			return nil, fmt.Errorf("%s interval: %w", kind, err)
		}
		if kind == KindCommunity {
			cfg.Community.SyncInterval = intervalChoices[idx]
		} else {
			cfg.Home.SyncInterval = intervalChoices[idx]
		}
	}

	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println("\nNote: Set OPENAI_API_KEY before ingesting knowledge or using AI extraction.")
	}

	configPath := ".parksync.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
