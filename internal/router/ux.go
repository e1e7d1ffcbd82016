// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package router

import (
	"fmt"
	"strings"

	"github.com/pdiddy/pubmed-assistant/internal/session"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// Feature is one documented capability, shown by /help.
type Feature struct {
	Name        string
	Command     string
	Description string
}

// Category groups features for the help menu.
type Category struct {
	Name     string
	Features []Feature
}

// Capabilities is the documented feature list, grouped for the help
// menu. Also consumed by the web UI's capability panel.
var Capabilities = []Category{
	{
		Name: "Literature Search",
		Features: []Feature{
			{"Search PubMed", "/search [terms]", "Search PubMed for scientific articles with your query"},
			{"Refine Search", "/refine [filters]", "Add filters to your current search results (date, type, author, etc.)"},
			{"Get Citation", "/cite [article number]", "Get formatted citation for a specific article"},
		},
	},
	{
		Name: "Medical Terminology",
		Features: []Feature{
			{"Explain Terms", "/explain [term]", "Get plain-language explanation of medical terminology"},
			{"Find Terms in Abstract", "/terms [article number]", "Identify complex terms in a specific article abstract"},
		},
	},
	{
		Name: "Research Analysis",
		Features: []Feature{
			{"Analyze Methodology", "/methodology [article number]", "Analyze research methodology in a paper"},
			{"Find Research Gaps", "/gaps", "Identify potential research gaps in current search results"},
			{"Compare Studies", "/compare [article #1] [article #2]", "Compare methodologies and findings between studies"},
			{"Suggest Questions", "/questions", "Generate research questions based on current search"},
		},
	},
	{
		Name: "User Preferences",
		Features: []Feature{
			{"Set Complexity Level", "/complexity [basic|intermediate|advanced]", "Set your preferred explanation complexity"},
			{"Set Detail Level", "/detail [brief|standard|detailed]", "Set your preferred level of detail in responses"},
			{"View Preferences", "/preferences", "View your current preference settings"},
		},
	},
	{
		Name: "Help & Learning",
		Features: []Feature{
			{"Get Help", "/help [optional: topic]", "Display available commands or get help on a specific topic"},
			{"Start Tutorial", "/tutorial", "Start an interactive tutorial of the features"},
			{"Show Examples", "/examples", "Show example usage scenarios"},
		},
	},
}

// commandExamples maps commands to usage examples shown by /help and
// /examples.
var commandExamples = map[string]string{
	"/search":      "/search diabetes type 2 treatment",
	"/explain":     "/explain hyperglycemia",
	"/methodology": "/methodology 3  (analyzes the third article in your results)",
	"/gaps":        "/gaps  (analyzes your current search results)",
	"/complexity":  "/complexity intermediate",
	"/tutorial":    "/tutorial",
	"/compare":     "/compare 1 4  (compares the first and fourth articles)",
}

// TutorialStep is one page of the interactive tutorial.
type TutorialStep struct {
	Title   string
	Content string
}

// TutorialSteps returns the tutorial pages, also used by the web UI's
// tutorial view.
func TutorialSteps() []TutorialStep {
	return []TutorialStep{
		{
			Title: "Welcome to the PubMed Assistant",
			Content: "Welcome to the interactive tutorial for the PubMed Assistant! This tutorial will guide you through the main features of the assistant.\n\n" +
				"The assistant has several powerful capabilities to help you with medical research:\n\n" +
				"1. Literature Search: Find and navigate PubMed articles\n" +
				"2. Medical Terminology: Get explanations of complex terms\n" +
				"3. Research Analysis: Analyze methodologies and identify research gaps\n" +
				"4. Personalization: Set your preferences for how information is presented",
		},
		{
			Title: "Literature Search Commands",
			Content: "You can search PubMed directly from the chat interface:\n\n" +
				"- Type /search diabetes treatment to search for articles about diabetes treatment\n" +
				"- Type /refine 2020:2023 to filter your results to these years\n" +
				"- Type /cite 3 to get a citation for the third article in your results\n\n" +
				"Try /search followed by any medical topic you're interested in!",
		},
		{
			Title: "Understanding Medical Terminology",
			Content: "The assistant can explain complex medical terminology:\n\n" +
				"- Type /explain hyperglycemia to get a plain-language explanation\n" +
				"- When viewing articles, click \"Explain These Terms\" to explain all technical terms at once\n" +
				"- You can ask \"what does [term] mean?\" in natural language too\n\n" +
				"The system will adapt explanations to your preferred complexity level.",
		},
		{
			Title: "Research Analysis Features",
			Content: "Analyze research papers and identify gaps:\n\n" +
				"- Type /methodology 2 to analyze the methods used in the second article\n" +
				"- Type /gaps to identify potential research gaps in your current search results\n" +
				"- Type /compare 1 3 to compare the first and third articles\n" +
				"- Type /questions to get suggested research questions based on your search\n\n" +
				"These features help you quickly understand research methods and findings.",
		},
		{
			Title: "Personalizing Your Experience",
			Content: "You can customize how the assistant interacts with you:\n\n" +
				"- Type /complexity [basic|intermediate|advanced] to set explanation detail\n" +
				"- Type /detail [brief|standard|detailed] to set response length\n" +
				"- Find these settings and more in the Preferences panel\n\n" +
				"Your preferences are saved between sessions for a consistent experience.",
		},
		{
			Title: "Getting Help",
			Content: "Whenever you need help, you have several options:\n\n" +
				"- Type /help to see all available commands\n" +
				"- Type /help [topic] to get help on a specific feature\n" +
				"- Type /examples to see example usage scenarios\n" +
				"- Type /tutorial to restart this tutorial at any time\n\n" +
				"You're now ready to use the PubMed Assistant!",
		},
	}
}

// uxCommands is the slash-command set handled without the model.
var uxCommands = []string{"/help", "/tutorial", "/examples", "/complexity", "/detail", "/preferences"}

func (r *Router) uxCommand(text string) bool {
	lower := strings.ToLower(text)
	for _, cmd := range uxCommands {
		if strings.HasPrefix(lower, cmd) {
			return true
		}
	}
	return false
}

func (r *Router) routeUX(sess *session.Context, text string) types.Turn {
	lower := strings.ToLower(text)
	switch {
	case strings.HasPrefix(lower, "/help"):
		return plainTurn(helpText(text))
	case strings.HasPrefix(lower, "/tutorial"):
		return plainTurn("Starting interactive tutorial. I'll guide you through the main features of the PubMed Assistant. Open the Tutorial page to step through it, or type /help for the command list.")
	case strings.HasPrefix(lower, "/examples"):
		return plainTurn(examplesText())
	case strings.HasPrefix(lower, "/complexity"):
		return r.setComplexity(sess, text)
	case strings.HasPrefix(lower, "/detail"):
		return r.setDetail(sess, text)
	case strings.HasPrefix(lower, "/preferences"):
		return plainTurn(preferencesText(sess.Prefs()))
	}
	return plainTurn("Unknown command. Type /help to see what I can do.")
}

// helpText builds the general help menu, or topic help when /help is
// followed by a feature name or command.
func helpText(text string) string {
	parts := strings.SplitN(text, " ", 2)
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		topic := strings.ToLower(strings.TrimSpace(parts[1]))
		for _, cat := range Capabilities {
			for _, f := range cat.Features {
				if strings.Contains(strings.ToLower(f.Name), topic) ||
					strings.Contains(strings.ToLower(f.Command), topic) {
					example := commandExamples[strings.Fields(f.Command)[0]]
					if example == "" {
						example = "No example available for this command."
					}
					return fmt.Sprintf("Help: %s\n\nCommand: %s\n\n%s\n\nExample usage:\n%s",
						f.Name, f.Command, f.Description, example)
				}
			}
		}
		return fmt.Sprintf("Sorry, I couldn't find help on '%s'. Try '/help' to see all available commands.", topic)
	}

	var b strings.Builder
	b.WriteString("Available Commands\n")
	for _, cat := range Capabilities {
		fmt.Fprintf(&b, "\n%s\n", cat.Name)
		for _, f := range cat.Features {
			fmt.Fprintf(&b, "- %s: %s\n", f.Command, f.Description)
		}
	}
	b.WriteString("\nTip: You can get detailed help on any command with /help [command]")
	return b.String()
}

func examplesText() string {
	var b strings.Builder
	b.WriteString("Example usage scenarios:\n")
	for _, cmd := range []string{"/search", "/explain", "/methodology", "/gaps", "/compare", "/complexity"} {
		fmt.Fprintf(&b, "- %s\n", commandExamples[cmd])
	}
	return b.String()
}

func (r *Router) setComplexity(sess *session.Context, text string) types.Turn {
	prefs := sess.Prefs()
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return plainTurn(fmt.Sprintf("Current complexity level: %s", prefs.Complexity))
	}

	level := types.Complexity(capitalize(parts[1]))
	if !types.ValidComplexity(level) {
		return plainTurn("Invalid complexity level. Please choose from: Basic, Intermediate, Advanced")
	}

	prefs.Complexity = level
	r.savePrefs(sess, prefs)
	return plainTurn(fmt.Sprintf("Your explanation complexity preference has been set to %s.", level))
}

func (r *Router) setDetail(sess *session.Context, text string) types.Turn {
	prefs := sess.Prefs()
	parts := strings.Fields(text)
	if len(parts) < 2 {
		return plainTurn(fmt.Sprintf("Current detail level: %s", prefs.DetailLevel))
	}

	level := types.DetailLevel(capitalize(parts[1]))
	if !types.ValidDetailLevel(level) {
		return plainTurn("Invalid detail level. Please choose from: Brief, Standard, Detailed")
	}

	prefs.DetailLevel = level
	r.savePrefs(sess, prefs)
	return plainTurn(fmt.Sprintf("Your response detail preference has been set to %s.", level))
}

// savePrefs updates the session snapshot and persists when logged in.
// A persistence failure keeps the in-session change.
func (r *Router) savePrefs(sess *session.Context, prefs types.UserPreferences) {
	sess.SetPrefs(prefs)
	if username := sess.Username(); username != "" && r.Prefs != nil {
		r.Prefs.Save(username, prefs)
	}
}

func preferencesText(prefs types.UserPreferences) string {
	return fmt.Sprintf("Your Current Preferences\n\n- Complexity: %s\n- Detail Level: %s\n- Citation Style: %s",
		prefs.Complexity, prefs.DetailLevel, prefs.CitationStyle)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
