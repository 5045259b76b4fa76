package textnorm

// symbolTable is a closed enumeration. Names missing here (\Pi, \Xi, \Zeta,
// ...) are left in the text as written.
var symbolTable = map[string]string{
	// Greek, lower case
	"alpha":      "α",
	"beta":       "β",
	"gamma":      "γ",
	"delta":      "δ",
	"epsilon":    "ε",
	"varepsilon": "ε",
	"zeta":       "ζ",
	"eta":        "η",
	"theta":      "θ",
	"vartheta":   "ϑ",
	"iota":       "ι",
	"kappa":      "κ",
	"lambda":     "λ",
	"mu":         "μ",
	"nu":         "ν",
	"xi":         "ξ",
	"pi":         "π",
	"rho":        "ρ",
	"sigma":      "σ",
	"tau":        "τ",
	"upsilon":    "υ",
	"phi":        "φ",
	"varphi":     "φ",
	"chi":        "χ",
	"psi":        "ψ",
	"omega":      "ω",

	// Greek, upper case
	"Gamma":  "Γ",
	"Delta":  "Δ",
	"Theta":  "Θ",
	"Lambda": "Λ",
	"Sigma":  "Σ",
	"Phi":    "Φ",
	"Psi":    "Ψ",
	"Omega":  "Ω",

	// operators
	"times": "×",
	"div":   "÷",
	"cdot":  "·",
	"pm":    "±",
	"mp":    "∓",

	// relations
	"leq":    "≤",
	"le":     "≤",
	"geq":    "≥",
	"ge":     "≥",
	"neq":    "≠",
	"ne":     "≠",
	"approx": "≈",
	"equiv":  "≡",
	"cong":   "≅",
	"propto": "∝",
	"sim":    "∼",

	// sets and logic
	"in":       "∈",
	"notin":    "∉",
	"subset":   "⊂",
	"subseteq": "⊆",
	"supset":   "⊃",
	"supseteq": "⊇",
	"cup":      "∪",
	"cap":      "∩",
	"emptyset": "∅",
	"forall":   "∀",
	"exists":   "∃",
	"neg":      "¬",
	"land":     "∧",
	"lor":      "∨",

	// arrows
	"rightarrow":     "→",
	"to":             "→",
	"leftarrow":      "←",
	"Rightarrow":     "⇒",
	"Leftarrow":      "⇐",
	"leftrightarrow": "↔",
	"Leftrightarrow": "⇔",
	"implies":        "⇒",
	"iff":            "⇔",

	// calculus
	"partial": "∂",
	"nabla":   "∇",
	"int":     "∫",
	"sum":     "∑",
	"prod":    "∏",

	// misc
	"infty":     "∞",
	"angle":     "∠",
	"degree":    "°",
	"circ":      "°",
	"parallel":  "∥",
	"perp":      "⊥",
	"therefore": "∴",
	"because":   "∵",
	"ldots":     "…",
}

// Symbol reports the replacement for a bare macro name.
func Symbol(name string) (string, bool) {
	s, ok := symbolTable[name]
	return s, ok
}

var accentMarks = map[string]string{
	"overline":  "\u0305",
	"underline": "\u0332",
	"vec":       "\u20d7",
	"hat":       "\u0302",
	"bar":       "\u0304",
	"tilde":     "\u0303",
}
