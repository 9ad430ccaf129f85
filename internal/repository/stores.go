package repository

import "database/sql"

// NewPostgresStores はPostgreSQLバックエンドのStoresを構築する。
func NewPostgresStores(db *sql.DB) *Stores {
	return &Stores{
		Users:       NewPostgresUserRepo(db),
		Projects:    NewPostgresProjectRepo(db),
		Files:       NewPostgresFileRepo(db),
		Deployments: NewPostgresDeploymentRepo(db),
		Configs:     NewPostgresConfigRepo(db),
	}
}

// NewMemoryStores はインメモリバックエンドのStoresを構築する。
// プロセス内限定・揮発性であり、テストおよびローカル開発用。
func NewMemoryStores() *Stores {
	return &Stores{
		Users:       NewMemoryUserRepo(),
		Projects:    NewMemoryProjectRepo(),
		Files:       NewMemoryFileRepo(),
		Deployments: NewMemoryDeploymentRepo(),
		Configs:     NewMemoryConfigRepo(),
	}
}
