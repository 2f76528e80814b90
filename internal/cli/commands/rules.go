package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/normalize"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Group   string // Filter by group
	Verbose bool   // Show descriptions
}

// ruleInfo is the rendered view of a rule under the active configuration.
type ruleInfo struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Group           string        `json:"group"`
	Description     string        `json:"description"`
	DefaultSeverity core.Severity `json:"defaultSeverity"`
	Severity        core.Severity `json:"severity"`
	Enabled         bool          `json:"enabled"`
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Rules []ruleInfo `json:"rules"`
	Count struct {
		Normalization int `json:"normalization"`
		Constraint    int `json:"constraint"`
		Enabled       int `json:"enabled"`
		Total         int `json:"total"`
	} `json:"count"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List analysis rules",
		Long: `List the normalization and constraint rules the analyzer runs.

Rules are grouped as "normalization" (normal-form checks) or "constraint"
(checks of declared constraints against sampled rows). Disable rules or
change their severity under the lint key in sqlscope.yaml.`,
		Example: `  # List all rules
  sqlscope rules

  # Show one rule
  sqlscope rules CK01

  # Constraint rules only, as JSON
  sqlscope rules --group constraint -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0])
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Group, "group", "g", "", "Filter by group: normalization, constraint")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show rule descriptions")

	return cmd
}

func collectRules(cc *CommandContext) []ruleInfo {
	cfg := cc.Cfg.RuleConfig()
	all := normalize.GetAll()
	infos := make([]ruleInfo, 0, len(all))
	for _, rule := range all {
		infos = append(infos, ruleInfo{
			ID:              rule.ID,
			Name:            rule.Name,
			Group:           rule.Group,
			Description:     rule.Description,
			DefaultSeverity: rule.Severity,
			Severity:        cfg.GetSeverity(rule.ID, rule.Severity),
			Enabled:         !cfg.IsDisabled(rule.ID),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Group != infos[j].Group {
			return infos[i].Group > infos[j].Group // normalization before constraint
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cc := NewCommandContextWithoutHistory(cmd)
	r := cc.Renderer

	rules := collectRules(cc)
	if opts.Group != "" {
		var filtered []ruleInfo
		for _, rule := range rules {
			if strings.EqualFold(rule.Group, opts.Group) {
				filtered = append(filtered, rule)
			}
		}
		rules = filtered
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, rules)
	case output.ModeMarkdown:
		listRulesMarkdown(r, rules, opts.Verbose)
	default:
		listRulesText(r, rules, opts.Verbose)
	}
	return nil
}

func listRulesText(r *output.Renderer, rules []ruleInfo, verbose bool) {
	styles := r.Styles()

	r.Println(styles.Header1.Render(fmt.Sprintf("Analysis Rules (%d)", len(rules))))
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println(styles.Header2.Render(capitalizeFirst(currentGroup)))
		}

		status := ""
		if !rule.Enabled {
			status = styles.Muted.Render(" (disabled)")
		}
		r.Printf("  %s  %s - %s%s\n",
			styles.Muted.Render(rule.ID),
			rule.Name,
			styles.Severity(rule.Severity).Render(rule.Severity.String()),
			status,
		)
		if verbose && rule.Description != "" {
			r.Println(styles.Muted.Render("      " + rule.Description))
		}
	}

	r.Println("")
	r.Println(styles.Muted.Render("Use 'sqlscope rules <rule-id>' for details"))
}

func listRulesMarkdown(r *output.Renderer, rules []ruleInfo, verbose bool) {
	r.Println("# Analysis Rules")
	r.Println("")

	currentGroup := ""
	for _, rule := range rules {
		if rule.Group != currentGroup {
			currentGroup = rule.Group
			r.Println("## " + capitalizeFirst(currentGroup))
			r.Println("")
		}
		suffix := ""
		if !rule.Enabled {
			suffix = " _(disabled)_"
		}
		r.Printf("- **%s** - %s (`%s`)%s\n", rule.ID, rule.Name, rule.Severity.String(), suffix)
		if verbose && rule.Description != "" {
			r.Println("  " + rule.Description)
		}
	}
}

func listRulesJSON(r *output.Renderer, rules []ruleInfo) error {
	out := RulesJSONOutput{Rules: rules}
	if out.Rules == nil {
		out.Rules = []ruleInfo{}
	}
	for _, rule := range rules {
		switch rule.Group {
		case normalize.GroupNormalization:
			out.Count.Normalization++
		case normalize.GroupConstraint:
			out.Count.Constraint++
		}
		if rule.Enabled {
			out.Count.Enabled++
		}
	}
	out.Count.Total = len(rules)
	return r.JSON(out)
}

func showRule(cmd *cobra.Command, ruleID string) error {
	cc := NewCommandContextWithoutHistory(cmd)
	r := cc.Renderer

	var rule *ruleInfo
	for _, ri := range collectRules(cc) {
		if strings.EqualFold(ri.ID, ruleID) {
			rule = &ri
			break
		}
	}
	if rule == nil {
		return fmt.Errorf("rule %q not found", ruleID)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(rule)
	case output.ModeMarkdown:
		r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
		r.Printf("**Group:** %s | **Severity:** `%s` | **Enabled:** %t\n\n", rule.Group, rule.Severity, rule.Enabled)
		r.Println(rule.Description)
	default:
		styles := r.Styles()
		r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
		r.Println("")
		r.Printf("  %s: %s\n", styles.Bold.Render("Group"), rule.Group)
		r.Printf("  %s: %s\n", styles.Bold.Render("Severity"), styles.Severity(rule.Severity).Render(rule.Severity.String()))
		if rule.Severity != rule.DefaultSeverity {
			r.Printf("  %s: %s\n", styles.Bold.Render("Default"), rule.DefaultSeverity.String())
		}
		r.Printf("  %s: %t\n", styles.Bold.Render("Enabled"), rule.Enabled)
		r.Println("")
		r.Println("  " + rule.Description)
	}
	return nil
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
