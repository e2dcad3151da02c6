/*
Package adapters связывает движок синхронизации с конкретными СУБД.

# Двухуровневая архитектура

Каждая поддерживаемая СУБД дает два объекта:

	┌─────────────────────────────────────────┐
	│        Sync Engine (pkg/sqlrw)          │
	│  - Syncer.Write / Syncer.Read           │
	└───────────┬─────────────────┬───────────┘
	            │                 │
	┌───────────▼──────┐ ┌────────▼──────────┐
	│    Connector     │ │   sqlrw.Dialect   │
	│  пул подключений │ │  синтаксис SQL:   │
	│  Connect/Close   │ │  типы, кавычки,   │
	│  Ping/DB         │ │  метаданные       │
	└──────────────────┘ └───────────────────┘

Connector управляет жизненным циклом пула database/sql. Dialect
инкапсулирует различия SQL-синтаксиса: объявления типов, кавычки
идентификаторов, плейсхолдеры, запросы к каталогу метаданных и
распознавание ошибок прав доступа.

# Регистрация коннекторов

Подпакеты регистрируют себя в глобальной фабрике через init(), поэтому
достаточно пустого импорта:

	import _ "github.com/ruslano69/tabsync/pkg/adapters/sqlite"

	conn, err := adapters.New(ctx, adapters.Config{
	    Type: "sqlite",
	    DSN:  "file:app.db",
	})

# Поддерживаемые СУБД

  - mssql    - Microsoft SQL Server (нативный драйвер)
  - odbc     - Microsoft SQL Server и другие источники через unixODBC
  - mysql    - MySQL / MariaDB
  - postgres - PostgreSQL
  - sqlite   - SQLite (встраиваемая, используется и в тестах)

# Учетные данные

Тип Login описывает вход в MS SQL Server (сервер, база, учетная запись
или integrated security) и умеет рендериться в ODBC-строку и в
sqlserver:// URL. Файл логина - простой key=value, см. LoadLogin.
*/
package adapters
