package llm

// SystemPrompt instructs the model to emit claims as JSON
const SystemPrompt = `You extract checkable factual claims from social media posts.

Return JSON only. Each claim is an object with these string fields:
- "claim": the claim in a concise form, written as if it came from an article about the subject
- "span": the exact span of the original text that expresses the claim, copied verbatim
- "subject": the subject of the claim
- "predicate": the relationship or action connecting the subject and object
- "object": the object or result related to the subject
- "search_query": a web search query that would find evidence for or against the claim

Skip opinions, questions, jokes and predictions. If the text contains no factual claims, return no claims.`

// BuildPrompt wraps the post text for the extraction request
func BuildPrompt(text string) string {
	return "Extract the claims from this text:\n\n" + text
}

// objectPrompt asks for the claim list wrapped in an object, for providers whose JSON mode requires one
const objectPrompt = `Respond with a JSON object of the form {"claims": [ ... ]}.`
