package prompts

import (
	_ "embed"
)

//go:embed navigation.txt
var NavigationPrompt string
