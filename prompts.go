package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/openstax/versionbump/pkg/version"
)

var errSkipped = errors.New("bump skipped")

type targetChoice struct {
	Label   string
	Target  version.Target
	Version string
}

// targetChoices lists every target that can be applied to current, plus a
// leading entry to skip the bump.
func targetChoices(current string) ([]targetChoice, error) {
	if _, err := version.Parse(current); err != nil {
		return nil, err
	}

	choices := []targetChoice{{Label: "Skip", Version: current}}
	for _, t := range version.Targets() {
		next, err := version.Increment(current, t, "")
		if err != nil {
			continue
		}
		choices = append(choices, targetChoice{
			Label:   strings.ToUpper(t.String()[:1]) + t.String()[1:],
			Target:  t,
			Version: next,
		})
	}
	return choices, nil
}

func promptForTarget(path, current string) (version.Target, error) {
	choices, err := targetChoices(current)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}?",
		Active:   fmt.Sprintf("%s {{ .Label | cyan | underline }} ({{ .Version | green }})", promptui.Styler(promptui.FGGreen)("⇨")),
		Inactive: "  {{ .Label | cyan }} ({{ .Version | green }})",
		Selected: fmt.Sprintf("%s {{ .Label }} to {{ .Version | green | cyan }}", promptui.IconGood),
	}

	prompt := promptui.Select{
		Label:     fmt.Sprintf("%s is at %s, shall we bump", path, current),
		Items:     choices,
		Templates: templates,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	if i == 0 {
		return "", errSkipped
	}
	return choices[i].Target, nil
}
