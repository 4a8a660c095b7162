package usecase

import (
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/adapter"
)

// Tool names exposed to the graph model.
const (
	toolAddExpression    = "desmos_add_expression"
	toolGetExpressions   = "desmos_get_expressions"
	toolRemoveExpression = "desmos_remove_expression"
	toolSetExpression    = "desmos_set_expression"
)

const graphPromptHead = `You are a math assistant that helps users interact with a Desmos graphing calculator.

You can add, remove, and modify expressions on the graph using the provided tools.

`

const graphPromptRules = `

Rules:
- Use Desmos-compatible LaTeX syntax (e.g. \frac{}{}, \sqrt{}, \sin, \cos, etc.)
- When the user asks to add something new, call desmos_add_expression DIRECTLY. Do NOT call desmos_get_expressions first for add-only requests.
- When the user asks to remove or change something, ALWAYS call desmos_get_expressions FIRST to see what is currently on the graph, then use the appropriate tool.
- You may call multiple tools in sequence to accomplish the user's request.
- After using tools, provide a very concise one-sentence explanation of what was graphed or changed (e.g. "Added y = x^2, a standard parabola.").
- If the user asks a question instead of requesting a graph action, respond concisely without using tools.`

const graphContext3D = `The calculator is in 3D mode (Desmos Calculator3D). Use 3D-compatible expressions:
- Surfaces: z = f(x, y), e.g. "z = x^2 + y^2"
- Parametric surfaces: use parameters u, v
- 3D curves: parametric with parameter t
- Spheres: "x^2 + y^2 + z^2 = r^2"
- Do NOT use 2D-only forms like "y = f(x)" unless the user explicitly asks for a 2D cross-section.`

const graphContext2D = `The calculator is in 2D mode (Desmos GraphingCalculator). Use 2D expressions:
- Functions: "y = f(x)", e.g. "y = x^2"
- Implicit: "x^2 + y^2 = 9"
- Parametric: use parameter t
- Inequalities: "y > x"
- Do NOT use 3D forms like "z = f(x, y)".`

func graphSystemPrompt(d model.Dimension) string {
	modeContext := graphContext3D
	if d == model.Dimension2D {
		modeContext = graphContext2D
	}
	return graphPromptHead + modeContext + graphPromptRules
}

const animationSystemPrompt = `You are a Python Manim Community Edition code generator.

Return ONLY valid Python code for one complete Manim script.
Requirements:
- include imports (e.g. from manim import *)
- include exactly one Scene subclass
- output plain python code only (no markdown fences, no extra commentary)`

const sessionPromptSystem = `You generate concise animation-ready prompts for an educational animation engine.

Rules:
- Return ONE structured string with the sections STUDENT QUESTION:, WHITEBOARD:, LECTURE GROUNDING:, ANIMATION PLAN:
- Be concise, around 50 words.
- Do not output JSON.
- Do not add commentary.
- ANIMATION PLAN should contain 2-3 numbered steps.
- Each step must describe what to visually show and what to say in one sentence.
- Prefer lecture grounding over general knowledge.
- If lecture grounding is NONE, say so and use general knowledge carefully.`

func sessionPromptUser(question, whiteboard, context string) string {
	if whiteboard == "" {
		whiteboard = "NONE"
	}
	if context == "" {
		context = "NONE"
	}
	return "Student question:\n" + question +
		"\n\nWhiteboard extract:\n" + whiteboard +
		"\n\nRetrieved lecture context:\n" + context
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	s := map[string]any{"type": "object", "properties": props}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// graphTools is the fixed tool registry offered on every graph turn.
var graphTools = []adapter.ToolSpec{
	{
		Name:        toolAddExpression,
		Description: "Add a new expression to the Desmos graph. Use this to plot new equations, functions, points, or inequalities.",
		InputSchema: objectSchema(map[string]any{
			"latex": stringProp(`The LaTeX expression to add (e.g. "y = x^2", "y = \\sin(x)").`),
		}, "latex"),
	},
	{
		Name:        toolGetExpressions,
		Description: "Get all expressions currently on the Desmos graph. Returns an array of objects with id and latex fields. Call this FIRST when you need to see what is currently plotted before modifying or removing expressions.",
		InputSchema: objectSchema(map[string]any{}),
	},
	{
		Name:        toolRemoveExpression,
		Description: "Remove an expression from the Desmos graph by its ID. You must call desmos_get_expressions first to find the correct ID.",
		InputSchema: objectSchema(map[string]any{
			"id": stringProp("The ID of the expression to remove."),
		}, "id"),
	},
	{
		Name:        toolSetExpression,
		Description: "Modify an existing expression on the Desmos graph. Updates the LaTeX of the expression with the given ID. You must call desmos_get_expressions first to find the correct ID.",
		InputSchema: objectSchema(map[string]any{
			"id":    stringProp("The ID of the expression to modify."),
			"latex": stringProp("The new LaTeX expression to set."),
		}, "id", "latex"),
	},
}
