package connection

import (
	"likeness.io/infrastructure/database/connection/datastore"
)

func ConnectToDatabase() {
	datastore.ConnectMongo()
}
