package leads

import "database/sql"

// LeadsSchema holds the leads table, kept in leads.db (ledger profile)
const LeadsSchema = `
CREATE TABLE IF NOT EXISTS leads (
    id INTEGER PRIMARY KEY,
    protocolo TEXT UNIQUE NOT NULL,
    nome TEXT NOT NULL,
    cpf TEXT NOT NULL,
    email TEXT,
    telefone TEXT,
    categoria TEXT NOT NULL,
    salario REAL NOT NULL,
    valor REAL NOT NULL,
    prazo INTEGER NOT NULL,
    parcela REAL NOT NULL DEFAULT 0,
    excedeu_margem INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_categoria ON leads(categoria);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(LeadsSchema)
	return err
}
