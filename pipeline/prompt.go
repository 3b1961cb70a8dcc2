package pipeline

// Substitutions: schema context, question.
const sqlGenerationTemplate = `You are an expert SQL query generator. Your task is to convert natural language questions into accurate SQL queries based on the provided database schema information.

Database Schema Information:
%s

User Question: %s

Instructions:
1. Analyze the question carefully to understand what data is being requested
2. Use the provided schema information to identify relevant tables and columns
3. Generate a syntactically correct SQL query that answers the question
4. Consider relationships between tables and use appropriate JOINs when needed
5. Use aggregate functions (SUM, COUNT, AVG, etc.) when appropriate
6. Include proper filtering with WHERE clauses when needed
7. Order results logically when applicable

Important Rules:
- Only use tables and columns that exist in the provided schema
- Use proper SQL syntax for the database type
- Be careful with date/time comparisons and formatting
- Include comments in the SQL to explain complex logic
- If the question cannot be answered with the available schema, explain why

Generate ONLY the SQL query, no explanations unless the query cannot be generated.

SQL Query:`

// Substitutions: question, SQL query, truncated results as JSON.
const analysisTemplate = `You are a data analyst expert. Analyze the following SQL query results and provide insights.

Original Question: %s
SQL Query: %s
Query Results: %s

Provide a comprehensive analysis including:
1. Summary of findings
2. Key insights and trends
3. Notable patterns or anomalies
4. Business implications if applicable
5. Recommendations based on the data

Analysis:`

// analysisRowLimit bounds the analysis prompt: only the first rows of a large
// result set are shown to the model.
const analysisRowLimit = 10
