package bloodhound

import (
	"strconv"
	"strings"
)

const UnknownFunctionalLevel = "Unknown"

// msDS-Behavior-Version values
// https://learn.microsoft.com/en-us/openspecs/windows_protocols/ms-adts/d7422d35-448a-451a-8846-6a7def0044df
var functionalLevels = []string{
	"2000 Mixed/Native",
	"2003 Interim",
	"2003",
	"2008",
	"2008 R2",
	"2012",
	"2012 R2",
	"2016",
}

// FunctionalLevel maps a raw msDS-Behavior-Version value to its label.
func FunctionalLevel(code string) string {
	i, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || i < 0 || i >= len(functionalLevels) {
		return UnknownFunctionalLevel
	}
	return functionalLevels[i]
}
