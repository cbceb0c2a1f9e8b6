package i18n

var jaJP = map[string]string{
	"UNKNOWN":               "予期しないエラーが発生しました。",
	"TASK_TITLE_EMPTY":      "タスクのタイトルを指定してください。",
	"TASK_ID_EMPTY":         "タスクIDを指定してください。",
	"TASK_INVALID_PRIORITY": "優先度は0以上で指定してください。",
	"TASK_INVALID_COST":     "コストは0以上で指定してください。",
	"EDIT_NO_FIELDS":        "編集する項目を1つ以上指定してください。",
	"INVALID_ARGUMENT":      "引数が不正です: {{.Reason}}。",
	"NOT_FOUND":             "タスク {{.TaskID}} が見つかりません。",
	"INVALID_OPERATION":     "タスク {{.TaskID}} は既に {{.Status}} のため {{.Action}} できません。",
	"CONCURRENCY_CONFLICT":  "タスク {{.TaskID}} が別のコマンドにより変更されました。再読み込みして再試行してください。",
	"ILLEGAL_TRANSITION":    "タスク {{.TaskID}} のイベントログが破損しています。taskmr-maintenance verify を実行してください。",
	"STORAGE_FAILURE":       "タスクストアにアクセスできません。",
}
