// Package templates holds the registry of per-language solution file
// templates. Languages are resolved by a static map lookup.
package templates

import (
	"fmt"
	"sort"
)

// Template describes how solution files for one language are produced.
type Template struct {
	// Language is the registry key, e.g. "python".
	Language string
	// Extension is the solution file extension, including the dot.
	Extension string
	// Command is the argv prefix used to execute a solution file.
	Command []string
	// Render produces the initial file body around the puzzle content.
	Render func(content string) string
}

var registry = map[string]Template{
	"python": {
		Language:  "python",
		Extension: ".py",
		Command:   []string{"python3"},
		Render: func(content string) string {
			return fmt.Sprintf("\"\"\"%s\n\n\"\"\"\n\n\ndef answer():\n    \"\"\" Solve the problem here! \"\"\"\n    return 0\n\n\nif __name__ == \"__main__\":\n    \"\"\" Try out your code here \"\"\"\n    print(answer())\n", content)
		},
	},
	"node": {
		Language:  "node",
		Extension: ".js",
		Command:   []string{"node"},
		Render: func(content string) string {
			return fmt.Sprintf("/*%s\n\n*/\n\n\nfunction answer() {\n    // Solve the problem here!\n    return 0\n}\n\n\n// Try out your code here\nconsole.log(answer())\n", content)
		},
	},
	"go": {
		Language:  "go",
		Extension: ".go",
		Command:   []string{"go", "run"},
		Render: func(content string) string {
			return fmt.Sprintf("/*%s\n\n*/\n\npackage main\n\nimport \"fmt\"\n\nfunc answer() int {\n\t// Solve the problem here!\n\treturn 0\n}\n\nfunc main() {\n\t// Try out your code here\n\tfmt.Println(answer())\n}\n", content)
		},
	},
}

// Get returns the template registered for language.
func Get(language string) (Template, bool) {
	t, ok := registry[language]
	return t, ok
}

// Supported returns the registered language names in sorted order.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
