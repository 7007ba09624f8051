package models

// Todo represents a todo item
type Todo struct {
	ID   int64  `firestore:"id" json:"id" msgpack:"id"`
	Text string `firestore:"text" json:"text" msgpack:"text"`
}

// CreateTodoRequest is the payload of a CreateTodo call
type CreateTodoRequest struct {
	Text string `json:"text" msgpack:"text"`
}

// ReadTodosRequest is the (empty) payload of ReadTodos and ReadTodosStream
type ReadTodosRequest struct{}

// TodoList wraps the items returned by ReadTodos
type TodoList struct {
	Items []Todo `json:"items" msgpack:"items"`
}
