package cli

import "strings"

// invocation is the split form of the positional args of search/go. Cobra
// flag parsing is off for those commands so that wrapper flags can be
// passed through untouched.
type invocation struct {
	tokens []string
	extra  []string
	debug  bool
	exec   bool
	pick   bool
	help   bool
}

// splitArgs separates query tokens from helper switches and pass-through
// flags. Everything after "--" is passed through verbatim.
//
//	helper go web 7 -A --debug -- -L 8080:localhost:80
func splitArgs(args []string) invocation {
	var inv invocation
	for i, a := range args {
		switch {
		case a == "--":
			inv.extra = append(inv.extra, args[i+1:]...)
			return inv
		case a == "--helper-debug":
			inv.debug = true
		case a == "--debug":
			inv.debug = true
			inv.extra = append(inv.extra, a)
		case a == "--helper-exec":
			inv.exec = true
		case a == "--helper-pick":
			inv.pick = true
		case a == "-h" || a == "--help":
			inv.help = true
		case len(a) > 1 && strings.HasPrefix(a, "-"):
			inv.extra = append(inv.extra, a)
		default:
			inv.tokens = append(inv.tokens, a)
		}
	}
	return inv
}
