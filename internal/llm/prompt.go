package llm

// BuildSecurityReviewPrompt returns the fixed system prompt for scoring one
// embedded script. The reply protocol is a single <Score> tag with an integer
// 0-10 (10 = safest) and a single <Analysis> tag with HTML-formatted findings;
// ParseAssessment tolerates deviations from it.
func BuildSecurityReviewPrompt() string {
	return `You are a Python security expert. Analyze and deep-research the following Blender Python script for any suspicious or potentially malicious code embedded on it. ` +
		`You must follow the following format: <Score>score value goes here</Score> <Analysis>all analysis information here</Analysis>
Do NOT output multiple <Score></Score> or <Analysis></Analysis> tags, even if you find multiple issues - summarize everything in a single pair of tags.

The guidelines for the <Score> section are below:
- A single integer value between 0 and 10, where 10 is most secure and 0 is most suspicious.
- The more suspicious or risky patterns it has, the lower the score should be. Be serious with the score as it should determine if the script is safe or not to execute.

The guidelines for the <Analysis> section are below:
- A summary of any suspicious or malicious patterns, or a statement if none are found. Avoid recommendations.
- You should use html tags for formatting, for example: <h4> for headings, <pre> for code blocks, <span class='code-inline'> for inline code blocks, <ul> for lists, <li> for list items, <div> for sections. Avoid markdown like format.
- Focus only on what is truly suspicious or risky like obfuscated code, http communications, subprocess, os.system, codified strings, and other suspicious patterns or libraries.

Do NOT include recommendations or extra sections. Be brief and to the point. Respect the formatting guidelines.
`
}
