package detection

// Signature tables. Every entry is lowercase ASCII and matched
// case-insensitively unless noted.

// sqlFastPathChars: a payload with none of these cannot carry a contextual
// SQL pattern.
const sqlFastPathChars = "'-;/*"

var sqlContextualPatterns = []string{
	"' or",
	"' and",
	"'=",
	"';",
	"--",
	"/*",
}

var sqlHighRiskTokens = []string{
	"union select",
	"insert into",
	"delete from",
	"drop table",
	"exec(",
	"xp_cmdshell",
	"waitfor delay",
}

// xssFastPathChars: a payload with none of these carries no markup, entity,
// escape or protocol separator.
const xssFastPathChars = "<>&\"'\\%:"

// xssDecodeTriggers: canonicalization only decodes when one remains.
const xssDecodeTriggers = "&%\\"

var xssKillSwitchPatterns = []string{
	"<script",
	"javascript:",
	"vbscript:",
	"data:text",
	"view-source:",
	"feed:",
	"<meta",
	"<iframe",
	"<object",
	"<embed",
	"<applet",
	"<style",
	"<template",
	"<noscript",
}

var xssExecutionTags = []string{
	"<script",
	"<iframe",
	"<object",
	"<embed",
	"<applet",
	"<meta",
	"<link",
	"<style",
	"<template",
	"<noscript",
}

var xssDangerousProtocols = []string{
	"javascript:",
	"vbscript:",
	"data:text/html",
	"data:text/html;base64",
	"data:image/svg+xml",
}

var xssEventHandlers = []string{
	"onload",
	"onerror",
	"onclick",
	"onmouseover",
	"onfocus",
	"onblur",
	"onchange",
	"onsubmit",
	"onkeydown",
	"onkeyup",
	"onmouseenter",
	"onmouseleave",
	"ontoggle",
	"onanimationstart",
}

var xssSuspiciousTags = []string{
	"<img",
	"<svg",
	"<video",
	"<audio",
	"<body",
	"<input",
	"<details",
	"<form",
}

var polyglotSignatures = []string{
	"\"><script>",
	"'><script>",
	"<svg/onload=",
	"<svg onload=",
	"';alert(",
	"\";alert(",
	"<img src=x onerror=",
	"javascript:alert",
	"-->",
	"--!>",
}

var polyglotCallNames = []string{
	"alert",
	"eval",
	"confirm",
	"prompt",
}
