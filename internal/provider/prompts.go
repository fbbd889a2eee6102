package provider

const validationPrompt = `You are a hypothesis validation system. Assess whether the following hypothesis is valid.

Consider the domain context and any supplied background facts. Be skeptical: only
judge the hypothesis valid if the reasoning genuinely supports it.

Respond ONLY with a JSON object. No markdown, no explanation. Example:
{"verdict":true,"confidence":0.85,"reasoning":"short justification","evidence":["supporting fact"],"concerns":["possible weakness"]}

Fields:
- verdict: boolean, whether the hypothesis is valid
- confidence: number in [0,1], how certain you are
- reasoning: one or two sentences of justification
- evidence: array of strings, observations supporting the verdict
- concerns: array of strings, caveats or counter-signals

Domain: %s

Hypothesis:
%s

Context:
%s`
