package cli

// CommandHelp represents the structure of help information for a specific command.
type CommandHelp struct {
	Scope     string
	Operation string
	ShortDesc string
	LongDesc  string
	Syntax    string
	Arguments []string
	Examples  []string
}

// commandHelps is a slice of CommandHelp structs containing help information for all commands.
var commandHelps = []CommandHelp{
	{
		Scope:     "mindmap",
		Operation: "view",
		ShortDesc: "Show the mindmap summary",
		LongDesc:  "Shows the name, id, thread and sticky counts and the active thread of the open mindmap.",
		Syntax:    "mindmap view",
		Examples:  []string{"mindmap view"},
	},
	{
		Scope:     "mindmap",
		Operation: "save",
		ShortDesc: "Save the mindmap now",
		LongDesc:  "Writes the open mindmap to the database without waiting for the autosave.",
		Syntax:    "mindmap save",
		Examples:  []string{"mindmap save"},
	},
	{
		Scope:     "mindmap",
		Operation: "list",
		ShortDesc: "List saved mindmaps",
		LongDesc:  "Lists the mindmaps stored in the database, most recently updated first.",
		Syntax:    "mindmap list",
		Examples:  []string{"mindmap list"},
	},
	{
		Scope:     "mindmap",
		Operation: "open",
		ShortDesc: "Open a saved mindmap",
		LongDesc:  "Saves the open mindmap and replaces it with a stored one. The undo history is cleared.",
		Syntax:    "mindmap open <mindmap_id>",
		Arguments: []string{"mindmap_id: The id shown by 'mindmap list'"},
		Examples:  []string{"mindmap open mindmap_1700000000000_abc123def"},
	},
	{
		Scope:     "mindmap",
		Operation: "delete",
		ShortDesc: "Delete a saved mindmap",
		LongDesc:  "Deletes a stored mindmap with its threads and stickies. The open mindmap cannot be deleted.",
		Syntax:    "mindmap delete <mindmap_id>",
		Arguments: []string{"mindmap_id: The id shown by 'mindmap list'"},
		Examples:  []string{"mindmap delete mindmap_1700000000000_abc123def"},
	},
	{
		Scope:     "mindmap",
		Operation: "export",
		ShortDesc: "Export the mindmap to a file",
		LongDesc:  "Exports the open mindmap to a file in JSON, XML or YAML format. Thread metadata is not written to XML.",
		Syntax:    "mindmap export <filename> [json|xml|yaml]",
		Arguments: []string{"filename: The name of the file to save to", "format: (Optional) The file format. Defaults to the file extension, or json"},
		Examples:  []string{"mindmap export ideas.json", "mindmap export ideas.out yaml"},
	},
	{
		Scope:     "mindmap",
		Operation: "import",
		ShortDesc: "Import a mindmap from a file",
		LongDesc:  "Validates and loads a mindmap file, replacing the open mindmap. The current mindmap is saved first.",
		Syntax:    "mindmap import <filename> [json|xml|yaml]",
		Arguments: []string{"filename: The name of the file to import from", "format: (Optional) The file format. Defaults to the file extension, or json"},
		Examples:  []string{"mindmap import ideas.json", "mindmap import ideas.xml xml"},
	},
	{
		Scope:     "mindmap",
		Operation: "search",
		ShortDesc: "Find related stickies",
		LongDesc:  "Ranks the stickies by similarity to the query, using their titles, content and thread messages.",
		Syntax:    "mindmap search <query...>",
		Arguments: []string{"query: The text to compare against"},
		Examples:  []string{"mindmap search distributed caching"},
	},
	{
		Scope:     "mindmap",
		Operation: "minimap",
		ShortDesc: "Draw the canvas overview",
		LongDesc:  "Scales every sticky into a small overview of the canvas. The selected sticky is marked with *.",
		Syntax:    "mindmap minimap [width height]",
		Arguments: []string{"width, height: (Optional) The size of the layout box. Defaults to 200 150"},
		Examples:  []string{"mindmap minimap", "mindmap minimap 300 200"},
	},
	{
		Scope:     "mindmap",
		Operation: "undo",
		ShortDesc: "Undo the last change",
		LongDesc:  "Reverts the last change to threads or stickies.",
		Syntax:    "mindmap undo",
		Examples:  []string{"mindmap undo"},
	},
	{
		Scope:     "mindmap",
		Operation: "redo",
		ShortDesc: "Redo the last undone change",
		LongDesc:  "Re-applies the last change reverted by undo.",
		Syntax:    "mindmap redo",
		Examples:  []string{"mindmap redo"},
	},
	{
		Scope:     "thread",
		Operation: "add",
		ShortDesc: "Create a thread",
		LongDesc:  "Creates a new thread and sends the optional first message to it. The active thread does not change.",
		Syntax:    "thread add <title> [message...]",
		Arguments: []string{"title: The thread title, quoted if it has spaces", "message: (Optional) The first message"},
		Examples:  []string{"thread add Caching", `thread add "Rate limits" how do token buckets work`},
	},
	{
		Scope:     "thread",
		Operation: "send",
		ShortDesc: "Send a message",
		LongDesc:  "Sends a message to the active thread and waits for the reply.",
		Syntax:    "thread send <message...>",
		Examples:  []string{"thread send what are the trade-offs of write-through caches?"},
	},
	{
		Scope:     "thread",
		Operation: "switch",
		ShortDesc: "Activate a thread",
		LongDesc:  "Makes the given thread the active one. New messages go to the active thread.",
		Syntax:    "thread switch <thread_id>",
		Examples:  []string{"thread switch thread_1700000000000_abc123def"},
	},
	{
		Scope:     "thread",
		Operation: "list",
		ShortDesc: "List threads",
		LongDesc:  "Lists every thread of the mindmap. The active thread is marked with *.",
		Syntax:    "thread list",
		Examples:  []string{"thread list"},
	},
	{
		Scope:     "thread",
		Operation: "view",
		ShortDesc: "Show a thread",
		LongDesc:  "Shows the messages of a thread, the active one by default, with the chain of threads it branched from.",
		Syntax:    "thread view [thread_id]",
		Examples:  []string{"thread view", "thread view thread_1700000000000_abc123def"},
	},
	{
		Scope:     "thread",
		Operation: "branch",
		ShortDesc: "Branch from selected text",
		LongDesc:  "Creates a thread from text selected in a message and places a sticky for it. Words after -- are asked in the new thread.",
		Syntax:    "thread branch <thread_id> <message_id> <x> <y> <selected text...> [-- <question...>]",
		Arguments: []string{"thread_id, message_id: The message the text was selected from", "x, y: The sticky position", "question: (Optional) Defaults to 'Tell me more about: <selected text>'"},
		Examples:  []string{"thread branch thread_1 msg_2 150 120 consistent hashing -- how does it rebalance?"},
	},
	{
		Scope:     "thread",
		Operation: "rename",
		ShortDesc: "Rename a thread",
		LongDesc:  "Changes the title of a thread.",
		Syntax:    "thread rename <thread_id> <title...>",
		Examples:  []string{"thread rename thread_1700000000000_abc123def Caching ideas"},
	},
	{
		Scope:     "sticky",
		Operation: "add",
		ShortDesc: "Add a sticky note",
		LongDesc:  "Creates a sticky with a new thread of the same title. Without a position it is placed randomly.",
		Syntax:    "sticky add <title> [x y]",
		Examples:  []string{"sticky add Idea", `sticky add "Open questions" 400 250`},
	},
	{
		Scope:     "sticky",
		Operation: "from-thread",
		ShortDesc: "Add a sticky for a thread",
		LongDesc:  "Places a sticky for an existing thread.",
		Syntax:    "sticky from-thread <thread_id> <x> <y>",
		Examples:  []string{"sticky from-thread thread_1700000000000_abc123def 100 100"},
	},
	{
		Scope:     "sticky",
		Operation: "list",
		ShortDesc: "List stickies",
		LongDesc:  "Lists the stickies on the canvas.",
		Syntax:    "sticky list",
		Examples:  []string{"sticky list"},
	},
	{
		Scope:     "sticky",
		Operation: "move",
		ShortDesc: "Move a sticky",
		LongDesc:  "Moves a sticky to a new position on the canvas.",
		Syntax:    "sticky move <sticky_id> <x> <y>",
		Examples:  []string{"sticky move sticky_1700000000000_abc123def 320 180"},
	},
	{
		Scope:     "sticky",
		Operation: "update",
		ShortDesc: "Update sticky fields",
		LongDesc:  "Merges field:value pairs into a sticky. Fields: title, content, color, preview, x, y, width, height, minimized, expanded, z.",
		Syntax:    "sticky update <sticky_id> <field>:<value>...",
		Examples:  []string{`sticky update sticky_1 "title:Better title" color:#3b82f6`, "sticky update sticky_1 minimized:true"},
	},
	{
		Scope:     "sticky",
		Operation: "stack",
		ShortDesc: "Stack two stickies",
		LongDesc:  "Puts the child sticky on top of the parent's stack.",
		Syntax:    "sticky stack <parent_id> <child_id>",
		Examples:  []string{"sticky stack sticky_1 sticky_2"},
	},
	{
		Scope:     "sticky",
		Operation: "delete",
		ShortDesc: "Remove a sticky",
		LongDesc:  "Removes a sticky from the canvas. Its thread is kept.",
		Syntax:    "sticky delete <sticky_id>",
		Examples:  []string{"sticky delete sticky_1700000000000_abc123def"},
	},
	{
		Scope:     "sticky",
		Operation: "chat",
		ShortDesc: "Chat on a sticky",
		LongDesc:  "Sends a message to the sticky's own conversation, separate from its thread.",
		Syntax:    "sticky chat <sticky_id> <message...>",
		Examples:  []string{"sticky chat sticky_1 summarize this"},
	},
	{
		Scope:     "sticky",
		Operation: "select",
		ShortDesc: "Select a sticky",
		LongDesc:  "Focuses a sticky. Without an id the selection is cleared.",
		Syntax:    "sticky select [sticky_id]",
		Examples:  []string{"sticky select sticky_1", "sticky select"},
	},
	{
		Scope:     "ui",
		Operation: "view",
		ShortDesc: "Switch the main view",
		LongDesc:  "Switches between the chat and the mindmap view.",
		Syntax:    "ui view <chat|mindmap>",
		Examples:  []string{"ui view mindmap"},
	},
	{
		Scope:     "ui",
		Operation: "theme",
		ShortDesc: "Set the theme",
		LongDesc:  "Sets the colour theme. The choice is remembered.",
		Syntax:    "ui theme <light|dark>",
		Examples:  []string{"ui theme dark"},
	},
	{
		Scope:     "ui",
		Operation: "toggle-theme",
		ShortDesc: "Toggle the theme",
		LongDesc:  "Switches between the light and the dark theme. The choice is remembered.",
		Syntax:    "ui toggle-theme",
		Examples:  []string{"ui toggle-theme"},
	},
	{
		Scope:     "ui",
		Operation: "select",
		ShortDesc: "Set the selected text",
		LongDesc:  "Records highlighted text. Without text the selection is cleared.",
		Syntax:    "ui select [text...]",
		Examples:  []string{"ui select consistent hashing", "ui select"},
	},
	{
		Scope:     "ui",
		Operation: "state",
		ShortDesc: "Show the UI state",
		LongDesc:  "Shows the view, theme, selections and the last error.",
		Syntax:    "ui state",
		Examples:  []string{"ui state"},
	},
	{
		Scope:     "system",
		Operation: "exit",
		ShortDesc: "Exit the program",
		LongDesc:  "Exits Entropy. The mindmap is saved on the way out.",
		Syntax:    "system exit",
		Examples:  []string{"system exit", "exit"},
	},
	{
		Scope:     "system",
		Operation: "quit",
		ShortDesc: "Quit the program",
		LongDesc:  "Quits Entropy. Equivalent to 'system exit'.",
		Syntax:    "system quit",
		Examples:  []string{"system quit", "quit"},
	},
}
