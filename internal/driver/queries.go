package driver

import "fmt"

const (
	PingQuery = `RETURN 1 AS ok`

	SaveMemoryNodeQuery = `
		MERGE (m:Memory {id: $id})
		SET m.user_id = $user_id,
			m.text = $text,
			m.summary = $summary,
			m.tags = $tags,
			m.file_id = $file_id,
			m.chunk_index = $chunk_index,
			m.created_at = $created_at
		RETURN m.id AS id
	`

	TagMemoryQuery = `
		MATCH (m:Memory {id: $memory_id})
		MERGE (c:Concept {name: $name, user_id: $user_id})
		ON CREATE SET c.id = $concept_id, c.created_at = $created_at
		MERGE (m)-[:TAGGED_WITH]->(c)
	`

	MentionEntityQuery = `
		MATCH (m:Memory {id: $memory_id})
		MERGE (e:Entity {name: $name, type: $type, user_id: $user_id})
		ON CREATE SET e.id = $entity_id, e.created_at = $created_at
		MERGE (m)-[:MENTIONS]->(e)
	`

	DeriveFromSourceQuery = `
		MATCH (m:Memory {id: $memory_id})
		MERGE (s:Source {id: $source_id})
		ON CREATE SET s.user_id = $user_id, s.file_name = $file_name, s.created_at = $created_at
		MERGE (m)-[:DERIVED_FROM]->(s)
	`

	RelateMemoryQuery = `
		MATCH (m:Memory {id: $memory_id})
		MERGE (m)-[:RELATED_TO {subject: $subject, predicate: $predicate, object: $object}]->(m)
	`

	// $low must sort before $high so each pair has a single edge.
	MergeSimilarityQuery = `
		MATCH (a:Memory {id: $low, user_id: $user_id})
		MATCH (b:Memory {id: $high, user_id: $user_id})
		MERGE (a)-[r:SIMILAR_TO]->(b)
		SET r.score = $score
		RETURN count(r) AS linked
	`

	DeleteMemoryQuery = `
		MATCH (m:Memory {id: $id})
		DETACH DELETE m
	`

	ClearUserQuery = `
		MATCH (n)
		WHERE n.user_id = $user_id
		WITH n
		DETACH DELETE n
		RETURN count(n) AS deleted
	`

	GraphNodesQuery = `
		MATCH (n)
		WHERE n.user_id = $user_id
		RETURN n.id AS id, labels(n)[0] AS type,
			coalesce(n.name, n.summary, n.file_name, n.id) AS label,
			properties(n) AS props
		ORDER BY n.created_at DESC
		LIMIT $limit
	`

	GraphEdgesQuery = `
		MATCH (a)-[r]->(b)
		WHERE a.user_id = $user_id AND b.user_id = $user_id
			AND a.id IN $ids AND b.id IN $ids
		RETURN a.id AS source, b.id AS target, type(r) AS type, properties(r) AS props
	`

	SearchNodesQuery = `
		MATCH (n)
		WHERE n.user_id = $user_id
			AND ($type = '' OR $type IN labels(n))
			AND (toLower(coalesce(n.name, '')) CONTAINS toLower($query)
				OR toLower(coalesce(n.summary, '')) CONTAINS toLower($query)
				OR toLower(coalesce(n.text, '')) CONTAINS toLower($query))
		RETURN n.id AS id, labels(n)[0] AS type,
			coalesce(n.name, n.summary, n.file_name, n.id) AS label,
			properties(n) AS props
		LIMIT $limit
	`

	CountNodesByTypeQuery = `
		MATCH (n)
		WHERE n.user_id = $user_id
		RETURN labels(n)[0] AS type, count(n) AS count
	`

	CountEdgesQuery = `
		MATCH (a)-[r]->(b)
		WHERE a.user_id = $user_id
		RETURN count(r) AS count
	`

	TopConceptsQuery = `
		MATCH (m:Memory)-[:TAGGED_WITH]->(c:Concept {user_id: $user_id})
		RETURN c.name AS name, count(m) AS count
		ORDER BY count DESC, name ASC
		LIMIT $limit
	`

	RecentMemoriesQuery = `
		MATCH (m:Memory {user_id: $user_id})
		RETURN m.id AS id, m.summary AS summary
		ORDER BY m.created_at DESC
		LIMIT $limit
	`

	ConceptTimelineQuery = `
		MATCH (c:Concept {user_id: $user_id})
		OPTIONAL MATCH (m:Memory)-[:TAGGED_WITH]->(c)
		RETURN c.name AS name, count(m) AS count, min(m.created_at) AS first_seen
	`

	ConceptCooccurrenceQuery = `
		MATCH (c1:Concept {user_id: $user_id})<-[:TAGGED_WITH]-(m:Memory)-[:TAGGED_WITH]->(c2:Concept {user_id: $user_id})
		WHERE c1.name < c2.name
		RETURN c1.name AS source, c2.name AS target, count(m) AS weight
		ORDER BY weight DESC
		LIMIT $limit
	`
)

// SubgraphNodesQuery expands depth hops from $node_id. Path bounds cannot be
// parameters, so depth is formatted in; callers clamp it first.
func SubgraphNodesQuery(depth int) string {
	return fmt.Sprintf(`
		MATCH (start {id: $node_id})
		WHERE start.user_id = $user_id
		OPTIONAL MATCH (start)-[*1..%d]-(n)
		WHERE n.user_id = $user_id
		WITH start, collect(DISTINCT n) AS others
		UNWIND [start] + others AS n
		RETURN DISTINCT n.id AS id, labels(n)[0] AS type,
			coalesce(n.name, n.summary, n.file_name, n.id) AS label,
			properties(n) AS props
		LIMIT $limit
	`, depth)
}
