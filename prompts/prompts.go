package prompts

import _ "embed"

// Embedded prompt files

//go:embed assistant_instructions.txt
var assistantInstructions string

// AssistantName is the display name given to the hosted assistant.
const AssistantName = "Missouri State Highway Patrol Recruiting Assistant"

func AssistantInstructions() string { return assistantInstructions }
