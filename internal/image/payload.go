package image

// Payload is one JSON body shape accepted by some inference deployment.
type Payload map[string]any

// Payloads returns the request bodies to try for params, most specific first.
// Bodies carrying the negative prompt, if any, precede the plain ones.
func Payloads(params Params) []Payload {
	prompt := params.Prompt

	var payloads []Payload
	if neg := params.NegativePrompt; neg != nil && *neg != "" {
		payloads = append(payloads,
			Payload{"inputs": map[string]string{"prompt": prompt, "negative_prompt": *neg}},
			Payload{"inputs": prompt, "parameters": map[string]string{"negative_prompt": *neg}},
			Payload{"inputs": prompt, "options": map[string]string{"negative_prompt": *neg}},
		)
	}
	return append(payloads,
		Payload{"inputs": map[string]string{"prompt": prompt}},
		Payload{"inputs": prompt},
	)
}
