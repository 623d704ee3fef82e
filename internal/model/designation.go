package model

import "strings"

var designationReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	".", "_",
	"(", "_",
	")", "_",
	`"`, "_",
	"#", "_",
	"!", "_",
	`\`, "_",
)

// NormalizeDesignation turns a raw product designation into its file-safe
// underscored form, the key used for image names and joins.
func NormalizeDesignation(name string) string {
	return designationReplacer.Replace(name)
}

// DisplayDesignation is the merged-store rendering of a normalized
// designation: leading underscores stripped, the rest turned back to spaces.
func DisplayDesignation(name string) string {
	return strings.ReplaceAll(strings.TrimLeft(name, "_"), "_", " ")
}
