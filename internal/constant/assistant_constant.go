package constant

// User-facing strings. The product speaks Russian; these are shown verbatim
// in the transcript, so changing them changes the UX contract with the client.
const (
	// Appended as the first AI message after a successful upload, %s = file name.
	MessageManuscriptLoaded = `Файл "%s" был успешно загружен. Теперь вы можете работать с текстом. Воспользуйтесь меню опций или задайте свой вопрос.`

	// Echoed user-intent messages when a mode is selected from the menu.
	MessageIntentGenres     = "Подобрать жанры и теги."
	MessageIntentSummary    = "AI-резюме главы..."
	MessageIntentAnnotation = "Сгенерировать аннотацию..."

	// Fixed AI prompt shown on entering summary mode.
	MessageSummaryDescribeScene = "Отлично! Пожалуйста, опишите главу или сцену, для которой нужно создать резюме. Например: 'сцена, где герой впервые встречает дракона'."

	// Mode-appropriate apologies for failed gateway calls.
	MessageGenericError = "К сожалению, произошла ошибка при обработке вашего запроса."
	MessageSummaryError = "Произошла ошибка при создании резюме. Пожалуйста, попробуйте еще раз."

	// Summary accepted, %s = generated scene title.
	MessageSummaryRecorded = `Резюме для "%s" успешно создано и добавлено в историю. Вы можете скачать его из боковой панели.`

	// Shown when the model returns found=false without its own question.
	MessageSummaryNotFound = "Не удалось найти указанную сцену. Попробуйте описать ее по-другому."

	// Genre apply confirmations. The empty-selection variant is a valid
	// outcome, not an error, and must stay distinct from the success one.
	MessageGenresRecorded      = "Отлично! Выбранные жанры и теги добавлены в историю изменений. Теперь вы можете задать следующий вопрос."
	MessageGenresEmptySelected = "Вы не выбрали ни одного жанра или тега. Режим подбора завершен. Можете задать другой вопрос."

	MessageAnnotationRecorded = "Аннотация была успешно сохранена в истории изменений. Вы можете скачать ее из боковой панели."

	// Ledger title for accepted annotations.
	AnnotationChangeTitle = "Аннотация к книге"
)

// Timestamp layout for ledger entries, matches what the sidebar renders.
const ChangeTimestampLayout = "15:04"
