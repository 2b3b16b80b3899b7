// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package classify

// HelpURL is the reference thread listing typical crash causes.
const HelpURL = "https://forums.nexusmods.com/index.php?/topic/7151166-whitescreen-reasons/"

// GenericExplanation is shown when the failure was not recognised.
const GenericExplanation = "The last session logged an exception. " +
	"Please visit " + HelpURL + " for typical reasons causing this. " +
	"Please report this issue only if you're sure none of those reasons apply to you!"

// Explanation returns the fixed explanatory text for a category.
func Explanation(c Category) string {
	switch c {
	case ApplicationDependencyFault:
		return "This exception seems to be caused by a bug in a dll that got shipped with old " +
			"versions of MS Office. It should be safe to ignore it but if you want to get rid of " +
			"the message you should check for updates to Office."
	case RuntimeLibraryFault:
		return "The exception you got indicates that the installation of the .NET Framework " +
			"installed on your system is invalid. This should be easily solved by reinstalling it."
	case OutOfMemory:
		return "The exception you got indicates an out of memory situation. This can have " +
			"different reasons, most commonly a system misconfiguration where it doesn't provide " +
			"enough virtual memory for stable operation."
	default:
		return GenericExplanation
	}
}
