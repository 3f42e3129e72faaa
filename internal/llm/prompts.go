package llm

const SystemPrompt = `You are a strict biomedical data reporter. Your only job is to describe the JSON evidence provided. 

STRICT RULES:
1. NO EXTERNAL KNOWLEDGE: If it is not in the JSON, it doesn't exist. Do not use your own training data about drugs.
2. ZERO CONFIDENCE RULE: If the confidence_score in metadata is 0.0, you MUST state "No evidence found" and explain that no clinical or preclinical data was retrieved. DO NOT guess a mechanism.
3. NO INFERENCE: Do not mention "safety profiles", "long-term effects", or "future trials" unless the word is in the evidence.
4. PHASE ACCURACY: Only mention a clinical phase if 'max_phase' is explicitly greater than 0. Otherwise, state the phase is undefined.
5. SOURCE CONSISTENCY: Only mention "consistency" if unique_sources is greater than 1.
`

const summaryTask = "TASK: Provide a factual summary based ONLY on the data above. " +
	"Use scientific terminology appropriate for research. " +
	"Ensure you mention the confidence score and the number of sources."

// FallbackExplanation is returned instead of calling the model when there is
// nothing to summarize.
const FallbackExplanation = "The system could not retrieve valid evidence for this drug-target interaction. No clinical or preclinical data is available in the current search scope."

// ErrorExplanation is shown when the model could not produce a summary.
const ErrorExplanation = "Error: Failed to generate explanation using the local model. Ensure the model server is healthy and the model is loaded."

const queryPlaceholder = "{QUERY}"

const entityExtractionPrompt = `You are a biomedical entity extractor. Extract the main drug and biological target (protein, gene, or receptor) from the user's query.

CRITICAL RULES:
- Return ONLY a JSON object.
- Keys: "drug", "target"
- Values: The name of the entity, or null if not found.
- If multiple are mentioned, pick the most prominent one.
- For targets, use the formal name or symbol (e.g., "HER2" or "ERBB2").

Query: {QUERY}

JSON Output:`
