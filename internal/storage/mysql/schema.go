package mysql

// The driver rejects multi-statement Exec unless multiStatements is set, so
// the schema is applied one statement at a time.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS ideas (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		content TEXT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'draft',
		owner_agent VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_ideas_status_updated (status, updated_at),
		INDEX idx_ideas_created_at (created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		idea_id BIGINT NOT NULL,
		kind VARCHAR(32) NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		INDEX idx_messages_idea (idea_id, created_at, id),
		CONSTRAINT fk_messages_idea FOREIGN KEY (idea_id) REFERENCES ideas(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
