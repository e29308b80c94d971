package prompt

// EnrichmentPromptID validates extracted metrics and fills derivable ones.
const EnrichmentPromptID = "enrichment.validate_metrics"

var builtins = []Template{
	{
		ID:          EnrichmentPromptID,
		Category:    "enrichment",
		Description: "Cleans extracted quarterly metrics and computes missing margins.",
		System:      "You are a financial data assistant. Return ONLY valid JSON.",
		User: `Given extracted metrics: {{.MetricsJSON}}
and the report text (first 4000 chars):

{{.ReportText}}

Please:
1) Return a JSON object with cleaned numeric values (numbers only) for keys: total_revenue, net_profit, operating_profit, ebitda, eps, roe, free_cash_flow, debt_to_equity, operating_margin, net_profit_margin.
2) If a margin is missing and you can compute it (e.g., operating_margin = operating_profit / total_revenue * 100), compute and include it.
3) Standardize units to crore (INR_Cr) or percentages where appropriate.
4) Provide a "notes" field indicating any assumptions.

Return ONLY valid JSON.
`,
		Required: []string{"MetricsJSON", "ReportText"},
		Version:  "1",
	},
}
