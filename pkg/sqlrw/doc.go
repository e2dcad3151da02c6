/*
Package sqlrw — ядро синхронизации табличных данных с реляционной БД.

# Конвейер записи

Каждый вызов Write проходит фиксированную последовательность фаз:

	┌──────────┐   ┌────────────────┐   ┌──────────────┐   ┌─────────────┐   ┌─────────┐
	│   Idle   │ → │ SchemaChecking │ → │ TypeCoercing │ → │ Classifying │ → │ Writing │
	└──────────┘   └────────────────┘   └──────────────┘   └─────────────┘   └─────────┘
	                CREATE / ALTER ADD     приведение         разбиение на      пакетные
	                по выведенной схеме    типов ячеек        insert/update     INSERT/UPDATE

Фаза Classifying выполняется только для режимов update/skip; режимы
append/overwrite пишут все строки как вставки. Каждый пакет строк
фиксируется отдельной транзакцией: сбой пакета N оставляет пакеты
1..N-1 применёнными (at-least-once, частичная долговечность).

# Диалекты

Ядро не знает конкретной СУБД: синтаксис (кавычки идентификаторов,
плейсхолдеры, типы данных, запросы к метаданным) инкапсулирован в
интерфейсе Dialect. Реализации живут в pkg/adapters/<СУБД>.

# Безопасность выражений

Идентификаторы (таблицы, схемы, столбцы) проходят проверку по
допустимому шаблону до попадания в текст SQL; значения передаются
только связанными параметрами.
*/
package sqlrw
