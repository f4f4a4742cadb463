package gemini

// GreetingSystemInstruction is used when no system instruction is configured.
const GreetingSystemInstruction = `You write greetings that a helpdesk sends to customers who were just recognised as VIP.

[CRITICAL] Reply with the greeting text only: no quotes, no markdown, no explanations, at most two sentences.
Keep the language, tone and form of address of the example greeting.`

// GreetingPrompt expects the client's display name and the template greeting.
const GreetingPrompt = `Client name: %s
Example greeting: %s

Write a personalised version of the example greeting for this client.`
