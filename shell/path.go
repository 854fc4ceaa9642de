package shell

import "strings"

// AbsPath resolves p against cwd, folding "." and "..". ".." at the root
// stays at the root.
func AbsPath(cwd string, p string) string {
	combined := p
	if !strings.HasPrefix(p, "/") {
		combined = cwd
		if !strings.HasSuffix(combined, "/") {
			combined += "/"
		}
		combined += p
	}
	var stack []string
	for _, part := range strings.Split(combined, "/") {
		switch part {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return "/" + strings.Join(stack, "/")
}
