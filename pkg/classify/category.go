package classify

import (
	"path"
	"strings"

	"github.com/src-d/enry/v2"
)

// Category is a coarse work area derived from a file path.
type Category string

// Work categories.
const (
	CategoryFrontend  Category = "frontend"
	CategoryBackend   Category = "backend"
	CategoryFullstack Category = "fullstack"
	CategoryDatabase  Category = "database"
	CategoryConfig    Category = "config"
	CategoryInfra     Category = "infra"
	CategoryDocs      Category = "docs"
	CategoryScripts   Category = "scripts"
	CategoryTesting   Category = "testing"
	CategoryOther     Category = "other"
)

// LanguageOther is the language bucket for files enry cannot identify.
const LanguageOther = "Other"

var extensionCategories = map[string]Category{
	".tsx": CategoryFrontend, ".jsx": CategoryFrontend, ".vue": CategoryFrontend, ".svelte": CategoryFrontend,
	".css": CategoryFrontend, ".scss": CategoryFrontend, ".sass": CategoryFrontend, ".less": CategoryFrontend,
	".html": CategoryFrontend, ".htm": CategoryFrontend,

	".py": CategoryBackend, ".go": CategoryBackend, ".rs": CategoryBackend, ".java": CategoryBackend,
	".rb": CategoryBackend, ".php": CategoryBackend, ".cs": CategoryBackend, ".cpp": CategoryBackend,
	".c": CategoryBackend, ".h": CategoryBackend,

	".ts": CategoryFullstack, ".js": CategoryFullstack, ".mjs": CategoryFullstack, ".cjs": CategoryFullstack,

	".sql": CategoryDatabase, ".prisma": CategoryDatabase, ".graphql": CategoryDatabase, ".gql": CategoryDatabase,

	".yml": CategoryConfig, ".yaml": CategoryConfig, ".toml": CategoryConfig, ".ini": CategoryConfig,
	".json": CategoryConfig, ".env": CategoryConfig, ".conf": CategoryConfig,

	".tf": CategoryInfra, ".tfvars": CategoryInfra, ".hcl": CategoryInfra,
	".dockerfile": CategoryInfra, ".dockerignore": CategoryInfra,

	".md": CategoryDocs, ".mdx": CategoryDocs, ".rst": CategoryDocs, ".txt": CategoryDocs,

	".sh": CategoryScripts, ".bash": CategoryScripts, ".zsh": CategoryScripts, ".fish": CategoryScripts,
	".ps1": CategoryScripts, ".bat": CategoryScripts, ".cmd": CategoryScripts,
}

var categoryLabels = map[Category]string{
	CategoryFrontend:  "Frontend",
	CategoryBackend:   "Backend",
	CategoryFullstack: "JS/TS",
	CategoryDatabase:  "Database",
	CategoryConfig:    "Config",
	CategoryInfra:     "Infra",
	CategoryDocs:      "Docs",
	CategoryScripts:   "Scripts",
	CategoryTesting:   "Testing",
	CategoryOther:     "Other",
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}

	return categoryLabels[CategoryOther]
}

// Categorize assigns filePath to a work category. Test files win over
// everything, then Dockerfiles, then the extension table.
func Categorize(filePath string) Category {
	base := strings.ToLower(path.Base(filePath))

	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") || strings.Contains(base, "_test.") {
		return CategoryTesting
	}

	if base == "dockerfile" || strings.HasPrefix(base, "dockerfile.") {
		return CategoryInfra
	}

	if cat, ok := extensionCategories[Extension(filePath)]; ok {
		return cat
	}

	return CategoryOther
}

// Language detects the programming language of filePath from its name alone.
func Language(filePath string) string {
	lang := enry.GetLanguage(path.Base(filePath), nil)
	if lang == "" {
		return LanguageOther
	}

	return lang
}
