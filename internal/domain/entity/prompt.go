package entity

import (
	"fmt"
	"strings"
)

type Prompt struct {
	ID   string
	Text string
}

// StyleConventions are the styling rules baked into the system instruction.
type StyleConventions struct {
	ClassPrefix string
	DarkMode    bool
}

const componentPromptHeader = `You are UIGen, a generator of single self-contained Vue 3 components.
Reply with one JSON object and nothing else. The object has exactly these fields:
- "template" (string, required): the component markup. Plain HTML using Vue template syntax
  ({{ }} interpolation, v-if, v-for, v-model, @click). One root element. No <script> or <style> tags.
- "script" (string, optional): the body of the component's setup function in plain JavaScript.
- "css" (string, optional): leave empty; styles are compiled from the template classes.`

const componentPromptScript = `Script rules:
1. Only two functions are available: ref(initial) and computed(getter). Do not import or require anything.
2. Do not touch window, document, fetch, timers or any global object.
3. Declare state with ref(), derived values with computed(), handlers as plain functions.
4. The script MUST end with a return statement exposing everything the template uses, e.g.
   const count = ref(0)
   const double = computed(() => count.value * 2)
   function inc() { count.value++ }
   return { count, double, inc }`

// BuildSystemInstruction renders the fixed system instruction for component generation.
func BuildSystemInstruction(conv StyleConventions) Prompt {
	var sb strings.Builder
	sb.WriteString(componentPromptHeader)
	sb.WriteString("\n\nStyling rules:\n")
	sb.WriteString("1. Style exclusively with Tailwind CSS v4 utility classes in class attributes. No inline styles.\n")
	if conv.ClassPrefix != "" {
		sb.WriteString(fmt.Sprintf("2. Every utility class MUST carry the %q prefix, e.g. %s:flex %s:p-4 %s:hover:bg-gray-100.\n",
			conv.ClassPrefix, conv.ClassPrefix, conv.ClassPrefix, conv.ClassPrefix))
	} else {
		sb.WriteString("2. Use unprefixed utility classes, e.g. flex p-4 hover:bg-gray-100.\n")
	}
	if conv.DarkMode {
		sb.WriteString("3. Support dark mode with dark: variants; the host toggles a .dark class on an ancestor.\n")
	} else {
		sb.WriteString("3. Do not use dark: variants.\n")
	}
	sb.WriteString("4. Keep the component responsive and accessible (labels, button types, alt text).\n\n")
	sb.WriteString(componentPromptScript)

	return Prompt{
		ID:   "component",
		Text: sb.String(),
	}
}
