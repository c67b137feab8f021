package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/samber/lo"
)

// CompletionCmd generates shell completions
type CompletionCmd struct {
	Shell string `arg:"" enum:"bash,zsh,fish" help:"Shell type (bash, zsh, fish)"`
}

// completionNode holds what can follow one command path.
type completionNode struct {
	Path        string // space separated, "" for the root
	Subcommands []string
	Flags       []string
}

// Run executes the completion command. The kong context keeps the scripts in
// sync with the command model.
func (c *CompletionCmd) Run(globals *Globals, ctx *kong.Context) error {
	var root *kong.Node
	if ctx != nil && ctx.Model != nil {
		root = ctx.Model.Node
	}
	nodes := completionIndex(root)
	enums := flagEnums(root)

	switch c.Shell {
	case "bash":
		writeBash(globals.Stdout, nodes)
	case "zsh":
		fmt.Fprintln(globals.Stdout, "#compdef dwell")
		fmt.Fprintln(globals.Stdout, "autoload -U +X bashcompinit && bashcompinit")
		writeBash(globals.Stdout, nodes)
	case "fish":
		writeFish(globals.Stdout, nodes, enums)
	default:
		return fmt.Errorf("unsupported shell: %s", c.Shell)
	}
	return nil
}

// completionIndex walks the command tree, deepest paths first.
func completionIndex(root *kong.Node) []completionNode {
	if root == nil {
		return []completionNode{{}}
	}
	var out []completionNode
	var walk func(n *kong.Node, path []string)
	walk = func(n *kong.Node, path []string) {
		node := completionNode{Path: strings.Join(path, " ")}
		for _, child := range n.Children {
			if child.Hidden || child.Type != kong.CommandNode {
				continue
			}
			node.Subcommands = append(node.Subcommands, child.Name)
			walk(child, append(slices.Clone(path), child.Name))
		}
		for _, group := range n.AllFlags(true) {
			for _, f := range group {
				node.Flags = append(node.Flags, "--"+f.Name)
				if f.Short != 0 {
					node.Flags = append(node.Flags, "-"+string(f.Short))
				}
			}
		}
		node.Flags = lo.Uniq(node.Flags)
		slices.Sort(node.Flags)
		out = append(out, node)
	}
	walk(root, nil)

	// bash case arms match the longest path first
	depth := func(path string) int {
		if path == "" {
			return -1
		}
		return strings.Count(path, " ")
	}
	slices.SortStableFunc(out, func(a, b completionNode) int {
		return depth(b.Path) - depth(a.Path)
	})
	return out
}

// flagEnums maps long flag names to their allowed values.
func flagEnums(root *kong.Node) map[string][]string {
	enums := map[string][]string{}
	if root == nil {
		return enums
	}
	var walk func(n *kong.Node)
	walk = func(n *kong.Node) {
		for _, f := range n.Flags {
			if f.Enum == "" {
				continue
			}
			values := lo.Compact(lo.Map(strings.Split(f.Enum, ","), func(v string, _ int) string { return strings.TrimSpace(v) }))
			enums[f.Name] = values
		}
		for _, child := range n.Children {
			walk(child)
		}
	}
	walk(root)
	return enums
}

func writeBash(w io.Writer, nodes []completionNode) {
	fmt.Fprintln(w, `_dwell() {
    local cur path w
    cur="${COMP_WORDS[COMP_CWORD]}"
    path=""
    for w in "${COMP_WORDS[@]:1:COMP_CWORD-1}"; do
        case "$w" in
            -*) ;;
            *) path="${path:+$path }$w" ;;
        esac
    done
    local words=""
    case "$path" in`)
	for _, n := range nodes {
		pattern := `""`
		if n.Path != "" {
			pattern = fmt.Sprintf("%q|%q*", n.Path, n.Path+" ")
		}
		words := append(slices.Clone(n.Subcommands), n.Flags...)
		fmt.Fprintf(w, "        %s) words=%q ;;\n", pattern, strings.Join(words, " "))
	}
	fmt.Fprintln(w, `    esac
    COMPREPLY=( $(compgen -W "$words" -- "$cur") )
}
complete -o default -F _dwell dwell`)
}

func writeFish(w io.Writer, nodes []completionNode, enums map[string][]string) {
	for _, n := range nodes {
		if len(n.Subcommands) == 0 {
			continue
		}
		cond := "__fish_use_subcommand"
		if n.Path != "" {
			parts := strings.Fields(n.Path)
			cond = fmt.Sprintf("__fish_seen_subcommand_from %s; and not __fish_seen_subcommand_from %s",
				parts[len(parts)-1], strings.Join(n.Subcommands, " "))
		}
		fmt.Fprintf(w, "complete -c dwell -f -n %q -a %q\n", cond, strings.Join(n.Subcommands, " "))
	}
	var flags []string
	for _, n := range nodes {
		for _, f := range n.Flags {
			if strings.HasPrefix(f, "--") {
				flags = append(flags, strings.TrimPrefix(f, "--"))
			}
		}
	}
	flags = lo.Uniq(flags)
	slices.Sort(flags)
	for _, f := range flags {
		if values, ok := enums[f]; ok {
			fmt.Fprintf(w, "complete -c dwell -l %s -x -a %q\n", f, strings.Join(values, " "))
			continue
		}
		fmt.Fprintf(w, "complete -c dwell -l %s\n", f)
	}
}
