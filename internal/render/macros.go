// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

// The LaTeX→Typst math dictionary. Extending the supported macro set means
// adding rows here; translateMath never changes.

// argMacro is a command that takes brace-delimited arguments.
type argMacro struct {
	// args is the number of required {..} groups.
	args int
	// format receives the translated arguments in order.
	format string
	// optFormat, when set, is used if a [..] optional argument is present;
	// it receives the optional argument first.
	optFormat string
	// literal arguments are copied verbatim instead of translated.
	literal bool
}

var argMacros = map[string]argMacro{
	"frac":         {args: 2, format: "(%s)/(%s)"},
	"dfrac":        {args: 2, format: "(%s)/(%s)"},
	"tfrac":        {args: 2, format: "(%s)/(%s)"},
	"binom":        {args: 2, format: "binom(%s, %s)"},
	"sqrt":         {args: 1, format: "sqrt(%s)", optFormat: "root(%s, %s)"},
	"text":         {args: 1, format: "%s", literal: true},
	"textrm":       {args: 1, format: "%s", literal: true},
	"mathrm":       {args: 1, format: "%s", literal: true},
	"operatorname": {args: 1, format: "%s", literal: true},
	"mathbf":       {args: 1, format: "bold(%s)"},
	"boldsymbol":   {args: 1, format: "bold(%s)"},
	"mathit":       {args: 1, format: "italic(%s)"},
	"mathbb":       {args: 1, format: "bb(%s)"},
	"mathcal":      {args: 1, format: "cal(%s)"},
	"hat":          {args: 1, format: "hat(%s)"},
	"bar":          {args: 1, format: "overline(%s)"},
	"overline":     {args: 1, format: "overline(%s)"},
	"underline":    {args: 1, format: "underline(%s)"},
	"vec":          {args: 1, format: "arrow(%s)"},
	"tilde":        {args: 1, format: "tilde(%s)"},
	"dot":          {args: 1, format: "dot(%s)"},
}

// symbolMacros map argument-less commands to Typst symbols.
var symbolMacros = map[string]string{
	// Greek, lower case.
	"alpha": "alpha", "beta": "beta", "gamma": "gamma", "delta": "delta",
	"epsilon": "epsilon.alt", "varepsilon": "epsilon", "zeta": "zeta", "eta": "eta",
	"theta": "theta", "vartheta": "theta.alt", "iota": "iota", "kappa": "kappa",
	"lambda": "lambda", "mu": "mu", "nu": "nu", "xi": "xi", "pi": "pi",
	"rho": "rho", "sigma": "sigma", "tau": "tau", "upsilon": "upsilon",
	"phi": "phi.alt", "varphi": "phi", "chi": "chi", "psi": "psi", "omega": "omega",
	// Greek, upper case.
	"Gamma": "Gamma", "Delta": "Delta", "Theta": "Theta", "Lambda": "Lambda",
	"Xi": "Xi", "Pi": "Pi", "Sigma": "Sigma", "Upsilon": "Upsilon",
	"Phi": "Phi", "Psi": "Psi", "Omega": "Omega",
	// Operators and relations.
	"times": "times", "cdot": "dot", "div": "div", "pm": "plus.minus", "mp": "minus.plus",
	"leq": "<=", "le": "<=", "geq": ">=", "ge": ">=", "neq": "!=", "ne": "!=",
	"approx": "approx", "equiv": "equiv", "sim": "tilde.op", "propto": "prop",
	"ll": "<<", "gg": ">>",
	"in": "in", "notin": "in.not", "subset": "subset", "subseteq": "subset.eq",
	"supset": "supset", "supseteq": "supset.eq", "cup": "union", "cap": "sect",
	"emptyset": "emptyset", "forall": "forall", "exists": "exists", "neg": "not",
	"land": "and", "lor": "or",
	"to": "->", "rightarrow": "->", "leftarrow": "<-", "Rightarrow": "=>",
	"Leftarrow": "arrow.l.double", "leftrightarrow": "<->", "Leftrightarrow": "<=>",
	"mapsto": "|->", "implies": "=>", "iff": "<=>",
	// Big operators and functions.
	"sum": "sum", "prod": "product", "int": "integral", "iint": "integral.double",
	"oint": "integral.cont", "lim": "lim", "infty": "infinity", "partial": "diff",
	"nabla": "nabla", "sin": "sin", "cos": "cos", "tan": "tan", "log": "log",
	"ln": "ln", "exp": "exp", "max": "max", "min": "min", "det": "det",
	"sup": "sup", "inf": "inf",
	// Dots and misc.
	"ldots": "dots", "dots": "dots", "cdots": "dots.c", "vdots": "dots.v",
	"ddots": "dots.down", "prime": "prime", "circ": "compose", "angle": "angle",
	"degree": "degree", "hbar": "planck.reduce", "ell": "ell",
	"langle": "angle.l", "rangle": "angle.r", "mid": "|",
	"quad": "quad", "qquad": "wide",
}

// strippedMacros are sizing and style hints with no Typst counterpart.
var strippedMacros = map[string]bool{
	"left": true, "right": true,
	"big": true, "Big": true, "bigg": true, "Bigg": true,
	"bigl": true, "bigr": true, "Bigl": true, "Bigr": true,
	"biggl": true, "biggr": true, "Biggl": true, "Biggr": true,
	"displaystyle": true, "textstyle": true, "limits": true, "nolimits": true,
}

// escapedSymbols map backslash-punctuation pairs.
var escapedSymbols = map[byte]string{
	'{':  `\{`,
	'}':  `\}`,
	'\\': " \\ ",
	',':  " ",
	';':  " ",
	':':  " ",
	'!':  "",
	' ':  " ",
	'%':  "%",
	'&':  "&",
	'_':  `\_`,
	'#':  `\#`,
	'$':  `\$`,
	'|':  "||",
}

// mathIdents are multi-letter words Typst math understands as-is. Other
// letter runs are split into single-letter variables.
var mathIdents = map[string]bool{
	"sin": true, "cos": true, "tan": true, "log": true, "ln": true, "exp": true,
	"lim": true, "max": true, "min": true, "det": true, "mod": true, "gcd": true,
}
