package analyzer

import "regexp"

// Tunables are the configurable constants of the heuristic analyzers.
type Tunables struct {
	// OptimumIterations is the snapshot count at which the problem-solving
	// iteration score peaks. Too few snapshots suggests big-bang coding,
	// too many suggests thrashing.
	OptimumIterations int `mapstructure:"optimum_iterations"`

	// IterationSigma is the width of the Gaussian falloff around the
	// optimum iteration count.
	IterationSigma float64 `mapstructure:"iteration_sigma"`

	// CommentDensityLow/High bound the comment-density sweet spot.
	CommentDensityLow  float64 `mapstructure:"comment_density_low"`
	CommentDensityHigh float64 `mapstructure:"comment_density_high"`
}

// DefaultTunables are the stock analyzer settings.
var DefaultTunables = Tunables{
	OptimumIterations:  8,
	IterationSigma:     4.0,
	CommentDensityLow:  0.05,
	CommentDensityHigh: 0.20,
}

// antiPattern is a named static-analysis red flag matched against the final
// code snapshot.
type antiPattern struct {
	Name       string
	Pattern    *regexp.Regexp
	Importance string
	Penalty    float64
}

// antiPatterns are the stock red flags. They live here, behind the analyzer
// interface, so the lists can be tuned without touching aggregation or
// evidence linking.
var antiPatterns = []antiPattern{
	{Name: "eval", Pattern: regexp.MustCompile(`\beval\s*\(`), Importance: ImportanceCritical, Penalty: 15},
	{Name: "innerHTML assignment", Pattern: regexp.MustCompile(`\.innerHTML\s*=`), Importance: ImportanceCritical, Penalty: 15},
	{Name: "document.write", Pattern: regexp.MustCompile(`document\.write\s*\(`), Importance: ImportanceImportant, Penalty: 10},
	{Name: "empty catch", Pattern: regexp.MustCompile(`catch\s*\([^)]*\)\s*\{\s*\}`), Importance: ImportanceImportant, Penalty: 10},
	{Name: "magic sleep", Pattern: regexp.MustCompile(`(?i)sleep\s*\(\s*\d{4,}`), Importance: ImportanceNormal, Penalty: 5},
}

// conditionalPattern counts branching and looping constructs for the
// control-flow density flag.
var conditionalPattern = regexp.MustCompile(`\b(if|for|while|switch|case)\b`)

// commentPattern matches a line-leading comment in the common languages
// candidates write.
var commentPattern = regexp.MustCompile(`^\s*(//|#|/\*|\*|--)`)

// debugCommandPatterns classify a terminal command as debugging intent:
// print/log inspection, breakpoints, version-control archaeology, or test
// invocation.
var debugCommandPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(print|echo|console\.log|logger?|tail|cat)\b`),
	regexp.MustCompile(`(?i)\b(breakpoint|pdb|gdb|debugger|dlv|lldb)\b`),
	regexp.MustCompile(`(?i)\bgit\s+(diff|log|status|blame|show)\b`),
	regexp.MustCompile(`(?i)\b(go\s+test|pytest|npm\s+test|yarn\s+test|jest|cargo\s+test|make\s+test|rspec)\b`),
}

// isDebugCommand reports whether a command matches any debugging-intent
// pattern.
func isDebugCommand(cmd string) bool {
	for _, p := range debugCommandPatterns {
		if p.MatchString(cmd) {
			return true
		}
	}
	return false
}

// codeFencePattern matches a fenced code block in a chat message.
var codeFencePattern = regexp.MustCompile("```")

// technicalTermPattern matches vocabulary that signals technical depth in a
// prompt.
var technicalTermPattern = regexp.MustCompile(`(?i)\b(function|method|variable|error|exception|stack|trace|test|assert|compile|runtime|api|endpoint|regex|struct|interface|goroutine|thread|async|callback|query|index|cache|buffer|pointer|null|nil|type|return|argument|parameter)\b`)

// structureMarkerPattern matches formatting that signals a structured,
// deliberate prompt: numbered lists, bullets, headers.
var structureMarkerPattern = regexp.MustCompile(`(?m)^\s*(\d+[.)]|[-*]\s|#{1,3}\s)`)

// narrationPattern matches progress-narration phrases in candidate
// messages, used by the communication analyzer.
var narrationPattern = regexp.MustCompile(`(?i)\b(because|so that|my plan|next i|i think|i'll|i will|first|then|instead|the issue is|turns out)\b`)
